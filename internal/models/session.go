package models

// Step identifies the current position in the intake form.
type Step string

const (
	StepNone           Step = ""
	StepName           Step = "name"
	StepPhone          Step = "phone"
	StepPosition       Step = "position"
	StepPositionManual Step = "position_manual"
	StepExperience     Step = "exp"
	StepCV             Step = "cv"

	// Admin mode sub-steps.
	StepAdminMenu           Step = "menu"
	StepAdminSearchPosition Step = "search_position"
)

// Mode distinguishes the intake flow from the reviewer admin flow.
type Mode string

const (
	ModeJob   Mode = "job"
	ModeAdmin Mode = "admin"
)

// Session is the per-user conversation state. It is created on the first
// interaction, mutated only by the conversation engine and cleared on
// cancellation or successful submission.
type Session struct {
	UserID   int64             `json:"userId"`
	Mode     Mode              `json:"mode"`
	Step     Step              `json:"step"`
	FormData map[string]string `json:"formData,omitempty"`
}

// NewJobSession starts a fresh intake form at the name step.
func NewJobSession(userID int64) *Session {
	return &Session{
		UserID:   userID,
		Mode:     ModeJob,
		Step:     StepName,
		FormData: map[string]string{},
	}
}

// NewAdminSession enters the reviewer admin menu.
func NewAdminSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		Mode:   ModeAdmin,
		Step:   StepAdminMenu,
	}
}

// Set stores one collected form value.
func (s *Session) Set(key, value string) {
	if s.FormData == nil {
		s.FormData = map[string]string{}
	}
	s.FormData[key] = value
}

// Get returns a collected form value or "".
func (s *Session) Get(key string) string {
	if s.FormData == nil {
		return ""
	}
	return s.FormData[key]
}

// internal/models/application.go
package models

import "time"

// CVKind marks what sort of attachment a candidate submitted.
type CVKind string

const (
	CVKindDocument CVKind = "doc"
	CVKindPhoto    CVKind = "photo"
)

// Application is one completed intake submission. Records are created
// once at form completion and never mutated afterwards.
type Application struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Position   string    `json:"position"`
	Experience string    `json:"experience"`
	CVFileID   string    `json:"cvFileId,omitempty"`
	CVKind     CVKind    `json:"cvKind,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasCV reports whether the submission carries an attachment reference.
func (a *Application) HasCV() bool {
	return a.CVFileID != ""
}

// PositionStats is a frequency table of positions over a trailing window.
type PositionStats struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	Days   int            `json:"days"`
}

package bot

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"intake-bot/internal/common/config"
	"intake-bot/internal/common/database"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/models"
	"intake-bot/internal/session"
	"intake-bot/internal/store"
	"intake-bot/internal/telegram"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewerID int64 = 500

type sentMessage struct {
	ChatID int64
	Text   string
	Markup interface{}
}

type sentFile struct {
	ChatID  int64
	FileID  string
	Caption string
}

// fakeAPI records outbound calls for assertions.
type fakeAPI struct {
	mu        sync.Mutex
	Messages  []sentMessage
	Photos    []sentFile
	Documents []sentFile
	Deleted   []int64
	Answered  []string
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID int64, text string, markup interface{}) telegram.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, sentMessage{chatID, text, markup})
	return telegram.Result{OK: true}
}

func (f *fakeAPI) SendPhoto(_ context.Context, chatID int64, fileID, caption string, _ interface{}) telegram.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Photos = append(f.Photos, sentFile{chatID, fileID, caption})
	return telegram.Result{OK: true}
}

func (f *fakeAPI) SendDocument(_ context.Context, chatID int64, fileID, caption string, _ interface{}) telegram.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Documents = append(f.Documents, sentFile{chatID, fileID, caption})
	return telegram.Result{OK: true}
}

func (f *fakeAPI) DeleteMessage(_ context.Context, _ int64, messageID int64) telegram.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, messageID)
	return telegram.Result{OK: true}
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, callbackID string) telegram.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Answered = append(f.Answered, callbackID)
	return telegram.Result{OK: true}
}

func (f *fakeAPI) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.Messages)
	return f.Messages[len(f.Messages)-1]
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = nil
	f.Photos = nil
	f.Documents = nil
	f.Deleted = nil
	f.Answered = nil
}

func adminTestConfig() config.AdminConfig {
	return config.AdminConfig{
		PageSize:        2,
		SearchLimit:     10,
		SearchScanLimit: 300,
		StatsDays:       30,
		StatsLimit:      1000,
	}
}

func newTestEngine(t *testing.T) (*Engine, *fakeAPI, *session.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := &fakeAPI{}
	sessions := session.NewStore(nil, logger.NewNoOpLogger())
	apps := store.NewApplicationStore(&database.PostgresClient{DB: db}, logger.NewNoOpLogger())
	engine := NewEngine(api, sessions, apps, reviewerID, adminTestConfig(), logger.NewTestLogger(t))
	return engine, api, sessions, mock
}

func textUpdate(chatID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		Chat: &telegram.Chat{ID: chatID, Type: "private"},
		From: &telegram.User{ID: chatID},
		Text: text,
	}}
}

func TestStart_ShowsMainMenu(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)

	engine.HandleUpdate(context.Background(), textUpdate(1, "/start"))

	msg := api.last(t)
	assert.Contains(t, msg.Text, "xush kelibsiz")
	kb, ok := msg.Markup.(*telegram.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "💼 Bo'sh ish o'rinlari", kb.Keyboard[1][1].Text)
}

func TestStart_ReviewerSeesAdminRow(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)

	engine.HandleUpdate(context.Background(), textUpdate(reviewerID, "/start"))

	kb := api.last(t).Markup.(*telegram.ReplyKeyboardMarkup)
	lastRow := kb.Keyboard[len(kb.Keyboard)-1]
	assert.Equal(t, "🔐 Admin", lastRow[0].Text)
}

func TestJobFlow_CompleteSubmission(t *testing.T) {
	engine, api, sessions, mock := newTestEngine(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WithArgs(sqlmock.AnyArg(), int64(9), "Ali Valiyev", "+998901234567",
			"Management (accountant)", "10 years teaching math", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	engine.HandleUpdate(ctx, textUpdate(9, "💼 Bo'sh ish o'rinlari"))
	assert.Contains(t, api.last(t).Text, "ism va familiyangizni")
	// the menu keyboard is cleared once the form starts
	assert.IsType(t, &telegram.ReplyKeyboardRemove{}, api.last(t).Markup)

	// too short and single-word names re-prompt without advancing
	engine.HandleUpdate(ctx, textUpdate(9, "Ali"))
	assert.Contains(t, api.last(t).Text, "to'liq yozing")
	engine.HandleUpdate(ctx, textUpdate(9, "Al V"))
	assert.Contains(t, api.last(t).Text, "to'liq yozing")

	engine.HandleUpdate(ctx, textUpdate(9, "Ali Valiyev"))
	assert.Contains(t, api.last(t).Text, "Telefon raqamingizni")

	engine.HandleUpdate(ctx, textUpdate(9, "12345"))
	assert.Contains(t, api.last(t).Text, "tugma orqali")

	engine.HandleUpdate(ctx, textUpdate(9, "+998901234567"))
	assert.Contains(t, api.last(t).Text, "Qaysi bo'limga")

	engine.HandleUpdate(ctx, textUpdate(9, "🏢 Management"))
	assert.Contains(t, api.last(t).Text, "mutaxassisligingiz")

	engine.HandleUpdate(ctx, textUpdate(9, "ab"))
	assert.Contains(t, api.last(t).Text, "mutaxassisligingiz")

	engine.HandleUpdate(ctx, textUpdate(9, "accountant"))
	assert.Contains(t, api.last(t).Text, "tajribangiz")

	engine.HandleUpdate(ctx, textUpdate(9, "short"))
	assert.Contains(t, api.last(t).Text, "batafsilroq")

	engine.HandleUpdate(ctx, textUpdate(9, "10 years teaching math"))
	assert.Contains(t, api.last(t).Text, "Rezyume")

	api.reset()
	engine.HandleUpdate(ctx, textUpdate(9, "O'tkazib yuborish"))

	// reviewer gets the card, the candidate gets the confirmation
	require.GreaterOrEqual(t, len(api.Messages), 2)
	assert.Equal(t, reviewerID, api.Messages[0].ChatID)
	assert.Contains(t, api.Messages[0].Text, "Ali Valiyev")
	assert.Contains(t, api.Messages[0].Text, "Management (accountant)")
	assert.Contains(t, api.last(t).Text, "HR bo'limiga yuborildi")

	assert.Nil(t, sessions.Get(ctx, 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFlow_OtherPositionKeepsTypedText(t *testing.T) {
	engine, _, sessions, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, textUpdate(3, "💼 Bo'sh ish o'rinlari"))
	engine.HandleUpdate(ctx, textUpdate(3, "Vali Aliyev"))
	engine.HandleUpdate(ctx, textUpdate(3, "998901234567"))
	engine.HandleUpdate(ctx, textUpdate(3, "💡 Boshqa lavozim"))
	engine.HandleUpdate(ctx, textUpdate(3, "Biologiya o'qituvchisi"))

	sess := sessions.Get(ctx, 3)
	require.NotNil(t, sess)
	assert.Equal(t, "Biologiya o'qituvchisi", sess.Get("position"))
	assert.Equal(t, models.StepExperience, sess.Step)
}

func TestJobFlow_ContactPayloadAccepted(t *testing.T) {
	engine, api, sessions, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, textUpdate(4, "💼 Bo'sh ish o'rinlari"))
	engine.HandleUpdate(ctx, textUpdate(4, "Vali Aliyev"))

	engine.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		Chat:    &telegram.Chat{ID: 4, Type: "private"},
		Contact: &telegram.Contact{PhoneNumber: "+998991112233", UserID: 4},
	}})

	assert.Contains(t, api.last(t).Text, "Qaysi bo'limga")
	assert.Equal(t, "+998991112233", sessions.Get(ctx, 4).Get("phone"))
}

func TestJobFlow_PhotoCVUsesLargestVariant(t *testing.T) {
	engine, api, _, mock := newTestEngine(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WithArgs(sqlmock.AnyArg(), int64(6), "Vali Aliyev", "998901234567",
			"Boshqa ish", "long experience text", "photo-big", "photo", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	engine.HandleUpdate(ctx, textUpdate(6, "💼 Bo'sh ish o'rinlari"))
	engine.HandleUpdate(ctx, textUpdate(6, "Vali Aliyev"))
	engine.HandleUpdate(ctx, textUpdate(6, "998901234567"))
	engine.HandleUpdate(ctx, textUpdate(6, "💡 Boshqa lavozim"))
	engine.HandleUpdate(ctx, textUpdate(6, "Boshqa ish"))
	engine.HandleUpdate(ctx, textUpdate(6, "long experience text"))

	engine.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		Chat: &telegram.Chat{ID: 6, Type: "private"},
		Photo: []telegram.PhotoSize{
			{FileID: "photo-small", Width: 90},
			{FileID: "photo-big", Width: 1280},
		},
	}})

	require.Len(t, api.Photos, 1)
	assert.Equal(t, "photo-big", api.Photos[0].FileID)
	assert.Equal(t, reviewerID, api.Photos[0].ChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStepLimits_CountCharactersNotBytes(t *testing.T) {
	engine, _, sessions, _ := newTestEngine(t)
	ctx := context.Background()

	sess := models.NewJobSession(11)
	sess.Step = models.StepPositionManual
	sess.Set("position_category", "💡 Boshqa lavozim")
	sess.Set("position_other", "1")
	sessions.Put(ctx, sess)

	// two Cyrillic characters span four bytes but still re-ask
	engine.HandleUpdate(ctx, textUpdate(11, "ст"))
	assert.Equal(t, models.StepPositionManual, sessions.Get(ctx, 11).Step)

	engine.HandleUpdate(ctx, textUpdate(11, "стр"))
	require.Equal(t, models.StepExperience, sessions.Get(ctx, 11).Step)

	// five characters, ten bytes: still too short for the experience step
	engine.HandleUpdate(ctx, textUpdate(11, "опыта"))
	assert.Equal(t, models.StepExperience, sessions.Get(ctx, 11).Step)

	engine.HandleUpdate(ctx, textUpdate(11, "опыт 5 лет"))
	assert.Equal(t, models.StepCV, sessions.Get(ctx, 11).Step)
}

func TestCancel_ClearsFromAnyStep(t *testing.T) {
	engine, api, sessions, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, textUpdate(5, "💼 Bo'sh ish o'rinlari"))
	engine.HandleUpdate(ctx, textUpdate(5, "Vali Aliyev"))
	require.NotNil(t, sessions.Get(ctx, 5))

	engine.HandleUpdate(ctx, textUpdate(5, "❌ Bekor qilish"))

	assert.Nil(t, sessions.Get(ctx, 5))
	assert.Contains(t, api.last(t).Text, "bekor qilindi")
}

func TestMenuCommand_ResetsMidFlow(t *testing.T) {
	engine, _, sessions, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, textUpdate(5, "💼 Bo'sh ish o'rinlari"))
	engine.HandleUpdate(ctx, textUpdate(5, "/menu"))

	assert.Nil(t, sessions.Get(ctx, 5))
}

func TestLanguageSwitch_PreservesProgress(t *testing.T) {
	engine, api, sessions, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, textUpdate(7, "💼 Bo'sh ish o'rinlari"))
	engine.HandleUpdate(ctx, textUpdate(7, "Vali Aliyev"))

	engine.HandleUpdate(ctx, textUpdate(7, "🇷🇺 RUS"))

	assert.Equal(t, "ru", sessions.Lang(ctx, 7))
	sess := sessions.Get(ctx, 7)
	require.NotNil(t, sess)
	assert.Equal(t, models.StepPhone, sess.Step)
	assert.Equal(t, "Vali Aliyev", sess.Get("name"))
	// current step is re-asked in the new language
	assert.Contains(t, api.last(t).Text, "номер телефона")
}

func TestIdle_MenuSections(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, textUpdate(8, "🏫 Biz haqimizda"))
	assert.Contains(t, api.last(t).Text, "Al-Xorazmiy")

	engine.HandleUpdate(ctx, textUpdate(8, "📍 Manzilimiz"))
	assert.Contains(t, api.last(t).Text, "Manzilimiz")

	engine.HandleUpdate(ctx, textUpdate(8, "some random text"))
	assert.Contains(t, api.last(t).Text, "menyudan birini")
}

func TestGroupAndNonMessageUpdatesIgnored(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleUpdate(ctx, telegram.Update{})
	engine.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		Chat: &telegram.Chat{ID: -100, Type: "group"},
		Text: "/start",
	}})

	assert.Empty(t, api.Messages)
}

func TestValidName(t *testing.T) {
	assert.False(t, validName("Ali"))
	assert.False(t, validName("Al V"))
	assert.True(t, validName("Ali V"))
	assert.True(t, validName("Ali Valiyev"))
	assert.False(t, validName("   "))

	// length counts characters, not bytes
	assert.True(t, validName("Али Валиев"))
	assert.False(t, validName("Ал В"))
}

func TestExtractPhone(t *testing.T) {
	msg := &telegram.Message{}

	// only the digits count, surrounding text is kept as entered
	for _, accept := range []string{"123456789", "+998 90 123-45-67", "998901234567", "tel:998901234567"} {
		_, ok := extractPhone(msg, accept)
		assert.True(t, ok, accept)
	}
	for _, reject := range []string{"12345", "1234567890123456", "phone please"} {
		_, ok := extractPhone(msg, reject)
		assert.False(t, ok, reject)
	}

	got, ok := extractPhone(msg, " tel:998901234567 ")
	require.True(t, ok)
	assert.Equal(t, "tel:998901234567", got)
}

func TestComposePosition(t *testing.T) {
	assert.Equal(t, "Management (accountant)", composePosition("💼 Management", "accountant", false))
	assert.Equal(t, "Xavfsizlik / Qo'riqlash (qorovul)", composePosition("🛡 Xavfsizlik / Qo'riqlash", "qorovul", false))
	assert.Equal(t, "accountant", composePosition("💡 Boshqa lavozim", "accountant", true))
	// labels without an icon stay whole
	assert.Equal(t, "Teacher (math)", composePosition("Teacher", "math", false))
}

// Package bot contains the conversation engine: the per-user state
// machine behind the intake form and the reviewer admin surface.
package bot

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"intake-bot/internal/bot/i18n"
	"intake-bot/internal/common/config"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/models"
	"intake-bot/internal/session"
	"intake-bot/internal/store"
	"intake-bot/internal/telegram"
)

// API is the outbound surface the engine needs from the Bot API
// client.
type API interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyMarkup interface{}) telegram.Result
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, replyMarkup interface{}) telegram.Result
	SendDocument(ctx context.Context, chatID int64, fileID, caption string, replyMarkup interface{}) telegram.Result
	DeleteMessage(ctx context.Context, chatID, messageID int64) telegram.Result
	AnswerCallbackQuery(ctx context.Context, callbackID string) telegram.Result
}

// Engine routes one update at a time per user. The poller guarantees
// updates for the same user are never handled concurrently.
type Engine struct {
	api      API
	sessions *session.Store
	apps     *store.ApplicationStore
	catalog  *i18n.Catalog

	reviewerChatID int64
	admin          config.AdminConfig

	logger logger.Logger
}

func NewEngine(api API, sessions *session.Store, apps *store.ApplicationStore,
	reviewerChatID int64, admin config.AdminConfig, log logger.Logger) *Engine {
	return &Engine{
		api:            api,
		sessions:       sessions,
		apps:           apps,
		catalog:        i18n.NewCatalog(),
		reviewerChatID: reviewerChatID,
		admin:          admin,
		logger:         log,
	}
}

func (e *Engine) isReviewer(userID int64) bool {
	return userID != 0 && userID == e.reviewerChatID
}

// HandleUpdate processes one inbound update end to end.
func (e *Engine) HandleUpdate(ctx context.Context, u telegram.Update) {
	if u.CallbackQuery != nil {
		e.handleCallback(ctx, u.CallbackQuery)
		return
	}
	if u.Message == nil || u.Message.Chat == nil || u.Message.Chat.Type != "private" {
		return
	}

	msg := u.Message
	chatID := msg.Chat.ID
	lang := i18n.Normalize(e.sessions.Lang(ctx, chatID))
	text := strings.TrimSpace(msg.Text)

	// Commands reset whatever was in flight.
	switch {
	case text == "/start" || text == "/menu":
		e.sessions.Clear(ctx, chatID)
		e.sendMenu(ctx, chatID, lang, i18n.MsgWelcome)
		return
	case text == "/admin":
		if e.isReviewer(chatID) {
			e.enterAdmin(ctx, chatID, lang)
		}
		return
	case strings.HasPrefix(text, "/a "):
		if e.isReviewer(chatID) {
			e.showApplicationDetail(ctx, chatID, lang, strings.TrimSpace(strings.TrimPrefix(text, "/a ")))
		}
		return
	}

	action, isAction := e.catalog.ActionFor(text)

	// Language switching works everywhere and preserves in-flight state.
	if isAction {
		if newLang, ok := langForAction(action); ok {
			e.switchLanguage(ctx, chatID, newLang)
			return
		}
	}

	sess := e.sessions.Get(ctx, chatID)
	if sess == nil {
		e.handleIdle(ctx, chatID, lang, action, isAction)
		return
	}

	if isAction && (action == i18n.ActionCancel || (action == i18n.ActionBack && sess.Mode == models.ModeAdmin)) {
		e.sessions.Clear(ctx, chatID)
		e.sendMenu(ctx, chatID, lang, i18n.MsgCanceled)
		return
	}

	if sess.Mode == models.ModeAdmin {
		e.handleAdmin(ctx, sess, lang, action, isAction, text)
		return
	}
	e.handleJobStep(ctx, sess, lang, msg, action, isAction, text)
}

func langForAction(action i18n.Action) (i18n.Lang, bool) {
	switch action {
	case i18n.ActionLangUz:
		return i18n.LangUz, true
	case i18n.ActionLangUzCyrl:
		return i18n.LangUzCyrl, true
	case i18n.ActionLangEn:
		return i18n.LangEn, true
	case i18n.ActionLangRu:
		return i18n.LangRu, true
	}
	return "", false
}

func (e *Engine) switchLanguage(ctx context.Context, chatID int64, lang i18n.Lang) {
	e.sessions.SetLang(ctx, chatID, string(lang))
	e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgLangChanged, lang), nil)

	// re-prompt whatever the user was doing, now in the new language
	if sess := e.sessions.Get(ctx, chatID); sess != nil {
		if sess.Mode == models.ModeAdmin {
			e.sendAdminMenu(ctx, chatID, lang)
			return
		}
		e.promptStep(ctx, chatID, lang, sess.Step)
		return
	}
	e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
}

func (e *Engine) handleIdle(ctx context.Context, chatID int64, lang i18n.Lang, action i18n.Action, isAction bool) {
	if !isAction {
		e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
		return
	}
	switch action {
	case i18n.ActionMenuAbout:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAbout, lang), nil)
	case i18n.ActionMenuContact:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgContact, lang), nil)
	case i18n.ActionMenuLocation:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgLocation, lang), nil)
	case i18n.ActionMenuJobs:
		sess := models.NewJobSession(chatID)
		e.sessions.Put(ctx, sess)
		e.promptStep(ctx, chatID, lang, sess.Step)
	case i18n.ActionMenuLang:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgSelectLang, lang), e.languageKeyboard(lang))
	case i18n.ActionMenuAdmin:
		if e.isReviewer(chatID) {
			e.enterAdmin(ctx, chatID, lang)
			return
		}
		e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
	case i18n.ActionBack:
		e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
	default:
		e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
	}
}

// promptStep re-asks the question belonging to a form step, with its
// keyboard.
func (e *Engine) promptStep(ctx context.Context, chatID int64, lang i18n.Lang, step models.Step) {
	switch step {
	case models.StepName:
		// the main menu keyboard goes away once the form starts
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskName, lang), removeKeyboard())
	case models.StepPhone:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskPhone, lang), e.phoneKeyboard(lang))
	case models.StepPosition:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskPosition, lang), e.positionKeyboard(lang))
	case models.StepPositionManual:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskPositionManual, lang), e.cancelKeyboard(lang))
	case models.StepExperience:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskExperience, lang), e.cancelKeyboard(lang))
	case models.StepCV:
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskCV, lang), e.cvKeyboard(lang))
	default:
		e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
	}
}

func (e *Engine) handleJobStep(ctx context.Context, sess *models.Session, lang i18n.Lang,
	msg *telegram.Message, action i18n.Action, isAction bool, text string) {
	chatID := sess.UserID

	switch sess.Step {
	case models.StepName:
		if !validName(text) {
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgInvalidName, lang), e.cancelKeyboard(lang))
			return
		}
		sess.Set("name", text)
		sess.Step = models.StepPhone
		e.sessions.Put(ctx, sess)
		e.promptStep(ctx, chatID, lang, sess.Step)

	case models.StepPhone:
		phone, ok := extractPhone(msg, text)
		if !ok {
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgInvalidPhone, lang), e.phoneKeyboard(lang))
			return
		}
		sess.Set("phone", phone)
		sess.Step = models.StepPosition
		e.sessions.Put(ctx, sess)
		e.promptStep(ctx, chatID, lang, sess.Step)

	case models.StepPosition:
		// any button or free text counts as a category choice
		sess.Set("position_category", text)
		if isAction && action == i18n.ActionOtherPos {
			sess.Set("position_other", "1")
		} else {
			sess.Set("position_other", "")
		}
		sess.Step = models.StepPositionManual
		e.sessions.Put(ctx, sess)
		e.promptStep(ctx, chatID, lang, sess.Step)

	case models.StepPositionManual:
		if charCount(text) <= 2 {
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAskPositionManual, lang), e.cancelKeyboard(lang))
			return
		}
		sess.Set("position", composePosition(sess.Get("position_category"), text, sess.Get("position_other") == "1"))
		sess.Step = models.StepExperience
		e.sessions.Put(ctx, sess)
		e.promptStep(ctx, chatID, lang, sess.Step)

	case models.StepExperience:
		if charCount(text) <= 5 {
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgInvalidExperience, lang), e.cancelKeyboard(lang))
			return
		}
		sess.Set("exp", text)
		sess.Step = models.StepCV
		e.sessions.Put(ctx, sess)
		e.promptStep(ctx, chatID, lang, sess.Step)

	case models.StepCV:
		fileID, kind, ok := extractCV(msg, isAction && action == i18n.ActionSkip)
		if !ok {
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgInvalidCV, lang), e.cvKeyboard(lang))
			return
		}
		e.completeApplication(ctx, sess, lang, fileID, kind)

	default:
		e.sessions.Clear(ctx, chatID)
		e.sendMenu(ctx, chatID, lang, i18n.MsgChooseMenu)
	}
}

// completeApplication persists the submission, notifies the reviewer
// chat and resets the user. Persistence failure degrades to
// notify-only so a database outage never eats a candidate.
func (e *Engine) completeApplication(ctx context.Context, sess *models.Session, lang i18n.Lang, fileID string, kind models.CVKind) {
	app := &models.Application{
		UserID:     sess.UserID,
		Name:       sess.Get("name"),
		Phone:      sess.Get("phone"),
		Position:   sess.Get("position"),
		Experience: sess.Get("exp"),
		CVFileID:   fileID,
		CVKind:     kind,
	}

	if err := e.apps.Save(ctx, app); err != nil {
		e.logger.Error("application save failed", map[string]interface{}{
			"user_id": app.UserID,
			"error":   err.Error(),
		})
	}

	e.notifyReviewer(ctx, app)

	e.sessions.Clear(ctx, sess.UserID)
	e.sendMenu(ctx, sess.UserID, lang, i18n.MsgApplied)
}

func (e *Engine) notifyReviewer(ctx context.Context, app *models.Application) {
	if e.reviewerChatID == 0 {
		return
	}
	e.api.SendMessage(ctx, e.reviewerChatID, formatApplication(app, -1), nil)
	e.forwardCV(ctx, e.reviewerChatID, app)
}

func (e *Engine) forwardCV(ctx context.Context, chatID int64, app *models.Application) {
	if !app.HasCV() {
		return
	}
	caption := "📎 CV: " + app.Name
	switch app.CVKind {
	case models.CVKindPhoto:
		e.api.SendPhoto(ctx, chatID, app.CVFileID, caption, nil)
	default:
		e.api.SendDocument(ctx, chatID, app.CVFileID, caption, nil)
	}
}

func (e *Engine) sendMenu(ctx context.Context, chatID int64, lang i18n.Lang, key i18n.MsgKey) {
	e.api.SendMessage(ctx, chatID, e.catalog.Message(key, lang), e.mainMenuKeyboard(lang, e.isReviewer(chatID)))
}

// charCount measures trimmed input in characters, not bytes, so
// Cyrillic answers meet the same limits as Latin ones.
func charCount(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// validName wants at least two words and five characters.
func validName(text string) bool {
	return charCount(text) >= 5 && len(strings.Fields(text)) >= 2
}

// extractPhone prefers the contact payload; typed text must carry 9 to
// 15 digits, anything around them is kept as entered.
func extractPhone(msg *telegram.Message, text string) (string, bool) {
	if msg.Contact != nil && msg.Contact.PhoneNumber != "" {
		return msg.Contact.PhoneNumber, true
	}
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < 9 || digits > 15 {
		return "", false
	}
	return strings.TrimSpace(text), true
}

// composePosition folds the chosen category and the typed refinement
// into the stored position. The free-form category keeps the typed
// text alone; otherwise the category label loses its leading icon and
// wraps the refinement.
func composePosition(category, refinement string, otherChosen bool) string {
	refinement = strings.TrimSpace(refinement)
	if otherChosen {
		return refinement
	}
	return stripLeadingIcon(category) + " (" + refinement + ")"
}

func stripLeadingIcon(label string) string {
	label = strings.TrimSpace(label)
	first, rest, found := strings.Cut(label, " ")
	if !found {
		return label
	}
	for _, r := range first {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return label
		}
	}
	return rest
}

func extractCV(msg *telegram.Message, skipped bool) (string, models.CVKind, bool) {
	if skipped {
		return "", "", true
	}
	if msg.Document != nil {
		return msg.Document.FileID, models.CVKindDocument, true
	}
	if photo := telegram.LargestPhoto(msg.Photo); photo != nil {
		return photo.FileID, models.CVKindPhoto, true
	}
	return "", "", false
}

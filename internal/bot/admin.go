package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"intake-bot/internal/bot/i18n"
	stderrors "intake-bot/internal/common/errors"
	"intake-bot/internal/models"
	"intake-bot/internal/telegram"
)

// messageChunkLimit stays under the platform's 4096-character cap with
// headroom for HTML entities.
const messageChunkLimit = 3500

func (e *Engine) enterAdmin(ctx context.Context, chatID int64, lang i18n.Lang) {
	e.sessions.Put(ctx, models.NewAdminSession(chatID))
	e.sendAdminMenu(ctx, chatID, lang)
}

func (e *Engine) sendAdminMenu(ctx context.Context, chatID int64, lang i18n.Lang) {
	e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminPanel, lang), e.adminMenuKeyboard(lang))
}

func (e *Engine) handleAdmin(ctx context.Context, sess *models.Session, lang i18n.Lang,
	action i18n.Action, isAction bool, text string) {
	chatID := sess.UserID

	switch sess.Step {
	case models.StepAdminSearchPosition:
		e.runPositionSearch(ctx, chatID, lang, text)
		sess.Step = models.StepAdminMenu
		e.sessions.Put(ctx, sess)
		e.sendAdminMenu(ctx, chatID, lang)

	default:
		if !isAction {
			e.sendAdminMenu(ctx, chatID, lang)
			return
		}
		switch action {
		case i18n.ActionAdminApps:
			e.sendApplicationsPage(ctx, chatID, lang, 0)
		case i18n.ActionAdminSearch:
			sess.Step = models.StepAdminSearchPosition
			e.sessions.Put(ctx, sess)
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminSearchAsk, lang), e.cancelKeyboard(lang))
		case i18n.ActionAdminStats:
			e.sendPositionStats(ctx, chatID, lang)
		default:
			e.sendAdminMenu(ctx, chatID, lang)
		}
	}
}

// handleCallback serves the inline pager. The page offset rides in the
// callback data, so any reviewer press maps to one stateless fetch.
func (e *Engine) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) {
	e.api.AnswerCallbackQuery(ctx, cq.ID)

	if cq.From == nil || !e.isReviewer(cq.From.ID) {
		return
	}
	offsetStr, found := strings.CutPrefix(cq.Data, "page_")
	if !found {
		return
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return
	}

	chatID := cq.From.ID
	lang := i18n.Normalize(e.sessions.Lang(ctx, chatID))

	// drop the old pager so only one set of page buttons stays live
	if cq.Message != nil {
		e.api.DeleteMessage(ctx, chatID, cq.Message.MessageID)
	}
	e.sendApplicationsPage(ctx, chatID, lang, offset)
}

func (e *Engine) sendApplicationsPage(ctx context.Context, chatID int64, lang i18n.Lang, offset int) {
	page, hasMore, err := e.apps.ListRecent(ctx, e.admin.PageSize, offset)
	if err != nil {
		e.sendStoreError(ctx, chatID, lang, err)
		return
	}
	if len(page) == 0 {
		if offset == 0 {
			e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminNoApps, lang), e.adminMenuKeyboard(lang))
			return
		}
		// the tail page can drain between renders, step back one page
		prev := offset - e.admin.PageSize
		if prev < 0 {
			prev = 0
		}
		e.sendApplicationsPage(ctx, chatID, lang, prev)
		return
	}

	for i, app := range page {
		e.api.SendMessage(ctx, chatID, formatApplication(&app, offset+i+1), nil)
		e.forwardCV(ctx, chatID, &app)
	}

	footer := fmt.Sprintf("📄 %d – %d", offset+1, offset+len(page))
	e.api.SendMessage(ctx, chatID, footer, pageKeyboard(offset, e.admin.PageSize, hasMore))
}

func (e *Engine) runPositionSearch(ctx context.Context, chatID int64, lang i18n.Lang, query string) {
	matches, err := e.apps.SearchByPosition(ctx, query, e.admin.SearchLimit, e.admin.SearchScanLimit)
	if err != nil {
		e.sendStoreError(ctx, chatID, lang, err)
		return
	}
	if len(matches) == 0 {
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminNoResults, lang), nil)
		return
	}
	for i, app := range matches {
		e.api.SendMessage(ctx, chatID, formatApplication(&app, i+1), nil)
		e.forwardCV(ctx, chatID, &app)
	}
	e.api.SendMessage(ctx, chatID, fmt.Sprintf("🔎 %d / %q", len(matches), query), nil)
}

func (e *Engine) showApplicationDetail(ctx context.Context, chatID int64, lang i18n.Lang, id string) {
	app, err := e.apps.GetByID(ctx, id)
	if err != nil {
		e.sendStoreError(ctx, chatID, lang, err)
		return
	}
	if app == nil {
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminNoResults, lang), nil)
		return
	}
	e.api.SendMessage(ctx, chatID, formatApplication(app, -1), nil)
	e.forwardCV(ctx, chatID, app)
}

func (e *Engine) sendPositionStats(ctx context.Context, chatID int64, lang i18n.Lang) {
	e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminAnalyzing, lang), nil)

	stats, err := e.apps.PositionStats(ctx, e.admin.StatsDays, e.admin.StatsLimit)
	if err != nil {
		e.sendStoreError(ctx, chatID, lang, err)
		return
	}
	if stats.Total == 0 {
		e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminNoData, lang), nil)
		return
	}
	e.sendChunked(ctx, chatID, renderStatsReport(stats))
}

func (e *Engine) sendStoreError(ctx context.Context, chatID int64, lang i18n.Lang, err error) {
	e.logger.Error("reviewer query failed", map[string]interface{}{
		"chat_id": chatID,
		"code":    string(stderrors.CodeOf(err)),
		"error":   err.Error(),
	})
	e.api.SendMessage(ctx, chatID, e.catalog.Message(i18n.MsgAdminStoreError, lang), nil)
}

// sendChunked splits long reports below the message size cap, cutting
// at line boundaries.
func (e *Engine) sendChunked(ctx context.Context, chatID int64, text string) {
	for len(text) > messageChunkLimit {
		cut := strings.LastIndex(text[:messageChunkLimit], "\n")
		if cut <= 0 {
			cut = messageChunkLimit
		}
		e.api.SendMessage(ctx, chatID, text[:cut], nil)
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		e.api.SendMessage(ctx, chatID, text, nil)
	}
}

// formatApplication renders one submission as an HTML card. A positive
// index prefixes the card for listings.
func formatApplication(app *models.Application, index int) string {
	var b strings.Builder
	if index > 0 {
		fmt.Fprintf(&b, "#%d\n", index)
	}
	fmt.Fprintf(&b, "👤 <b>%s</b>\n", app.Name)
	fmt.Fprintf(&b, "📞 %s\n", app.Phone)
	fmt.Fprintf(&b, "💼 %s\n", app.Position)
	fmt.Fprintf(&b, "📝 %s\n", app.Experience)
	if app.HasCV() {
		b.WriteString("📎 CV ✅\n")
	} else {
		b.WriteString("📎 CV ➖\n")
	}
	if !app.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "🕐 %s\n", app.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "🆔 <code>%s</code>", app.ID)
	return b.String()
}

// renderStatsReport draws the position frequency table with ten-slot
// progress bars, most frequent first.
func renderStatsReport(stats *models.PositionStats) string {
	type entry struct {
		position string
		count    int
	}
	entries := make([]entry, 0, len(stats.Counts))
	for position, count := range stats.Counts {
		entries = append(entries, entry{position, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].position < entries[j].position
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%d kun | %d ta ariza</b>\n\n", stats.Days, stats.Total)
	for _, en := range entries {
		pct := en.count * 100 / stats.Total
		fmt.Fprintf(&b, "%s %d — %s (%d%%)\n", progressBar(pct), en.count, en.position, pct)
	}
	return strings.TrimRight(b.String(), "\n")
}

func progressBar(pct int) string {
	filled := (pct + 5) / 10
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("🟢", filled) + strings.Repeat("⚪", 10-filled)
}

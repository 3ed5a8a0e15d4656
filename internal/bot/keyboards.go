package bot

import (
	"fmt"

	"intake-bot/internal/bot/i18n"
	"intake-bot/internal/telegram"
)

func replyRows(rows ...[]telegram.KeyboardButton) *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

func textRow(labels ...string) []telegram.KeyboardButton {
	row := make([]telegram.KeyboardButton, 0, len(labels))
	for _, label := range labels {
		row = append(row, telegram.KeyboardButton{Text: label})
	}
	return row
}

// mainMenuKeyboard is the idle-state menu. Reviewers get an extra admin
// row.
func (e *Engine) mainMenuKeyboard(lang i18n.Lang, reviewer bool) *telegram.ReplyKeyboardMarkup {
	kb := replyRows(
		textRow(e.catalog.Label(i18n.ActionMenuAbout, lang), e.catalog.Label(i18n.ActionMenuContact, lang)),
		textRow(e.catalog.Label(i18n.ActionMenuLocation, lang), e.catalog.Label(i18n.ActionMenuJobs, lang)),
		textRow(e.catalog.Label(i18n.ActionMenuLang, lang)),
	)
	if reviewer {
		kb.Keyboard = append(kb.Keyboard, textRow(e.catalog.Label(i18n.ActionMenuAdmin, lang)))
	}
	return kb
}

func (e *Engine) cancelKeyboard(lang i18n.Lang) *telegram.ReplyKeyboardMarkup {
	return replyRows(textRow(e.catalog.Label(i18n.ActionCancel, lang)))
}

// removeKeyboard clears whatever reply keyboard the chat last showed.
func removeKeyboard() *telegram.ReplyKeyboardRemove {
	return &telegram.ReplyKeyboardRemove{RemoveKeyboard: true}
}

func (e *Engine) phoneKeyboard(lang i18n.Lang) *telegram.ReplyKeyboardMarkup {
	return replyRows(
		[]telegram.KeyboardButton{{Text: e.catalog.Label(i18n.ActionSendContact, lang), RequestContact: true}},
		textRow(e.catalog.Label(i18n.ActionCancel, lang)),
	)
}

func (e *Engine) positionKeyboard(lang i18n.Lang) *telegram.ReplyKeyboardMarkup {
	kb := &telegram.ReplyKeyboardMarkup{ResizeKeyboard: true}
	for _, row := range e.catalog.Positions(lang) {
		kb.Keyboard = append(kb.Keyboard, textRow(row...))
	}
	kb.Keyboard = append(kb.Keyboard, textRow(e.catalog.Label(i18n.ActionCancel, lang)))
	return kb
}

func (e *Engine) cvKeyboard(lang i18n.Lang) *telegram.ReplyKeyboardMarkup {
	return replyRows(
		textRow(e.catalog.Label(i18n.ActionSkip, lang)),
		textRow(e.catalog.Label(i18n.ActionCancel, lang)),
	)
}

func (e *Engine) languageKeyboard(lang i18n.Lang) *telegram.ReplyKeyboardMarkup {
	return replyRows(
		textRow(e.catalog.Label(i18n.ActionLangUz, lang), e.catalog.Label(i18n.ActionLangUzCyrl, lang)),
		textRow(e.catalog.Label(i18n.ActionLangEn, lang), e.catalog.Label(i18n.ActionLangRu, lang)),
		textRow(e.catalog.Label(i18n.ActionBack, lang)),
	)
}

func (e *Engine) adminMenuKeyboard(lang i18n.Lang) *telegram.ReplyKeyboardMarkup {
	return replyRows(
		textRow(e.catalog.Label(i18n.ActionAdminApps, lang)),
		textRow(e.catalog.Label(i18n.ActionAdminSearch, lang)),
		textRow(e.catalog.Label(i18n.ActionAdminStats, lang)),
		textRow(e.catalog.Label(i18n.ActionBack, lang)),
	)
}

// pageKeyboard builds the inline pager under a listing footer. Offsets
// ride in the callback data so the handler is stateless.
func pageKeyboard(offset, pageSize int, hasMore bool) *telegram.InlineKeyboardMarkup {
	var row []telegram.InlineKeyboardButton
	if offset > 0 {
		prev := offset - pageSize
		if prev < 0 {
			prev = 0
		}
		row = append(row, telegram.InlineKeyboardButton{
			Text:         "⬅️",
			CallbackData: fmt.Sprintf("page_%d", prev),
		})
	}
	if hasMore {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         "➡️",
			CallbackData: fmt.Sprintf("page_%d", offset+pageSize),
		})
	}
	if len(row) == 0 {
		return nil
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{row}}
}

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, LangUz, Normalize("uz"))
	assert.Equal(t, LangRu, Normalize("ru"))
	assert.Equal(t, LangUz, Normalize(""))
	assert.Equal(t, LangUz, Normalize("de"))
}

func TestActionFor_AllLanguages(t *testing.T) {
	c := NewCatalog()

	action, ok := c.ActionFor("❌ Bekor qilish")
	require.True(t, ok)
	assert.Equal(t, ActionCancel, action)

	action, ok = c.ActionFor("❌ Отмена")
	require.True(t, ok)
	assert.Equal(t, ActionCancel, action)

	action, ok = c.ActionFor("💡 Other position")
	require.True(t, ok)
	assert.Equal(t, ActionOtherPos, action)

	_, ok = c.ActionFor("free text that is no label")
	assert.False(t, ok)
}

func TestLabel_FallsBackToDefault(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, "⬅️ Back", c.Label(ActionBack, LangEn))
	// admin button only exists in the default language
	assert.Equal(t, "🔐 Admin", c.Label(ActionMenuAdmin, LangRu))
}

func TestMessage_FallsBackToDefault(t *testing.T) {
	c := NewCatalog()

	assert.Contains(t, c.Message(MsgApplied, LangEn), "HR department")
	assert.Equal(t, c.Message(MsgApplied, DefaultLang), c.Message(MsgApplied, Lang("xx")))
}

func TestPositions_EveryLanguageEndsWithOther(t *testing.T) {
	c := NewCatalog()

	for _, lang := range []Lang{LangUz, LangUzCyrl, LangEn, LangRu} {
		rows := c.Positions(lang)
		require.NotEmpty(t, rows)
		last := rows[len(rows)-1]
		require.Len(t, last, 1)

		action, ok := c.ActionFor(last[0])
		require.True(t, ok, "language %s", lang)
		assert.Equal(t, ActionOtherPos, action)
	}
}

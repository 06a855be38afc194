package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslatorDefaultLanguage(t *testing.T) {
	tr := New("ru")
	assert.Equal(t, "ru", tr.Lang(""))
	assert.Equal(t, "Диалог не найден", tr.T("", "conversation.not_found"))

	tr = New("en")
	assert.Equal(t, "Conversation not found", tr.T("", "conversation.not_found"))
}

func TestTranslatorAcceptLanguage(t *testing.T) {
	tr := New("ru")
	assert.Equal(t, "en", tr.Lang("en-US,en;q=0.9"))
	assert.Equal(t, "Cannot join conversation", tr.T("en-US,en;q=0.9", "socket.cannot_join"))
	assert.Equal(t, "ru", tr.Lang("de-DE"))
}

func TestTranslatorFallsBackToEnglish(t *testing.T) {
	for _, lang := range []string{"", "xx"} {
		tr := New(lang)
		assert.Equal(t, "en", tr.Lang(""))
		assert.Equal(t, "Cannot join conversation", tr.T("", "socket.cannot_join"))
		assert.Equal(t, "Failed to send message", tr.T("", "socket.send_failed"))
	}
}

func TestTranslatorUnknownKey(t *testing.T) {
	tr := New("xx")
	assert.Equal(t, "missing.key", tr.T("en", "missing.key"))
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for key := range ru {
		_, ok := en[key]
		assert.True(t, ok, "missing en translation for %s", key)
	}
	assert.Len(t, en, len(ru))
}

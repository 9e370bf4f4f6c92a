package strip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/roach88/stripmark/internal/strip"
)

func TestDefaultMessages(t *testing.T) {
	m := strip.DefaultMessages()

	assert.Equal(t, "Unstrip loop detected", m.LoopDetected())
	assert.Equal(t, "Unstrip recursion limit exceeded (20)", m.RecursionLimitReached(20))
}

func TestNewMessages_German(t *testing.T) {
	m := strip.NewMessages(language.German)

	assert.Equal(t, "Unstrip-Schleife erkannt", m.LoopDetected())
	assert.Equal(t, "Unstrip-Rekursionsgrenze überschritten (20)", m.RecursionLimitReached(20))
}

func TestNewMessages_RegionalVariant(t *testing.T) {
	m := strip.NewMessages(language.MustParse("de-AT"))
	assert.Equal(t, "Unstrip-Schleife erkannt", m.LoopDetected())
}

func TestNewMessages_FallsBackToEnglish(t *testing.T) {
	m := strip.NewMessages(language.Japanese)
	assert.Equal(t, "Unstrip loop detected", m.LoopDetected())
}

func TestMessages_LocalisedNumbers(t *testing.T) {
	m := strip.NewMessages(language.English)
	assert.Equal(t, "Unstrip recursion limit exceeded (1,000)", m.RecursionLimitReached(1000))
}

func TestSupportedLanguages(t *testing.T) {
	assert.Equal(t, []language.Tag{language.English, language.German}, strip.SupportedLanguages())
}

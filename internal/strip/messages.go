package strip

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Messages renders the inline texts for the two recoverable unstrip
// conditions.
type Messages interface {
	LoopDetected() string
	RecursionLimitReached(limit int) string
}

// Message keys.
const (
	MsgLoopWarning    = "parser-unstrip-loop-warning"
	MsgRecursionLimit = "parser-unstrip-recursion-limit"
)

var translations = []struct {
	tag   language.Tag
	loop  string
	limit string
}{
	{language.English, "Unstrip loop detected", "Unstrip recursion limit exceeded (%d)"},
	{language.German, "Unstrip-Schleife erkannt", "Unstrip-Rekursionsgrenze überschritten (%d)"},
}

var (
	messageCatalog = buildCatalog()
	supportedTags  = func() []language.Tag {
		tags := make([]language.Tag, len(translations))
		for i, tr := range translations {
			tags[i] = tr.tag
		}
		return tags
	}()
	tagMatcher = language.NewMatcher(supportedTags)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, tr := range translations {
		if err := b.SetString(tr.tag, MsgLoopWarning, tr.loop); err != nil {
			panic(fmt.Sprintf("strip: message catalog: %v", err))
		}
		if err := b.SetString(tr.tag, MsgRecursionLimit, tr.limit); err != nil {
			panic(fmt.Sprintf("strip: message catalog: %v", err))
		}
	}
	return b
}

// CatalogMessages formats messages from the built-in catalog with a
// locale-aware printer, so the limit is rendered with the language's digit
// grouping.
type CatalogMessages struct {
	printer *message.Printer
}

// NewMessages returns catalog messages for the closest supported language.
// Unsupported languages fall back to English.
func NewMessages(tag language.Tag) *CatalogMessages {
	_, idx, _ := tagMatcher.Match(tag)
	return &CatalogMessages{
		printer: message.NewPrinter(supportedTags[idx], message.Catalog(messageCatalog)),
	}
}

// DefaultMessages returns English catalog messages.
func DefaultMessages() *CatalogMessages {
	return NewMessages(language.English)
}

// LoopDetected implements Messages.
func (m *CatalogMessages) LoopDetected() string {
	return m.printer.Sprintf(MsgLoopWarning)
}

// RecursionLimitReached implements Messages.
func (m *CatalogMessages) RecursionLimitReached(limit int) string {
	return m.printer.Sprintf(MsgRecursionLimit, limit)
}

// SupportedLanguages lists the languages of the built-in catalog.
func SupportedLanguages() []language.Tag {
	return append([]language.Tag(nil), supportedTags...)
}

// errorSpan wraps msg the way the surrounding markup marks inline errors.
func errorSpan(msg string) string {
	return `<span class="error">` + msg + `</span>`
}

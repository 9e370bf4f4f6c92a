package strip

import "fmt"

// Category partitions bindings by when they may be resolved.
type Category uint8

const (
	// NoWiki holds content that must never be reparsed as markup.
	NoWiki Category = iota
	// General holds every other kind of stripped content.
	General

	numCategories
)

// Categories returns every category in UnstripBoth order.
func Categories() []Category {
	return []Category{NoWiki, General}
}

func (c Category) String() string {
	switch c {
	case NoWiki:
		return "nowiki"
	case General:
		return "general"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

func (c Category) valid() bool {
	return c < numCategories
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "nowiki":
		return NoWiki, nil
	case "general":
		return General, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Value is a bound value. It is sealed: only Text and Producer implement it.
type Value interface {
	stripValue()
}

// Text is a literal bound value.
type Text string

func (Text) stripValue() {}

// Producer computes a bound value on demand. It is invoked every time its
// marker is resolved; results are not cached.
type Producer func() (string, error)

func (Producer) stripValue() {}

// IsDeferred reports whether v is computed on demand.
func IsDeferred(v Value) bool {
	_, ok := v.(Producer)
	return ok
}

// produce returns the string behind v, invoking it if it is a Producer.
func produce(v Value) (string, error) {
	switch v := v.(type) {
	case Text:
		return string(v), nil
	case Producer:
		if v == nil {
			return "", nil
		}
		return v()
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Binding is one entry of a State.
type Binding struct {
	Category Category
	ID       string
	Value    Value
}

// Marker returns the token that refers to this binding.
func (b Binding) Marker() string {
	return Marker(b.ID)
}

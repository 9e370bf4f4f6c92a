package strip

import (
	"fmt"
	"strings"
)

// Unstrip replaces every marker bound in cat with its value.
//
// Markers of other categories and unbound markers are left as they are.
// Values are resolved recursively, so a value may itself contain markers.
// A marker that is already being resolved further up is replaced by a loop
// warning span; nesting at or beyond the recursion limit is replaced by a
// limit span. Both leave the rest of the text intact.
//
// Producers are invoked left to right, depth first, once per occurrence. If
// one fails, Unstrip returns a ProducerError and no text.
func (s *State) Unstrip(cat Category, text string) (string, error) {
	if !cat.valid() {
		return "", fmt.Errorf("unstrip: %w: %s", ErrUnknownCategory, cat)
	}
	u := &unstripper{
		state: s,
		cat:   cat,
		guard: make(map[string]struct{}),
	}
	return u.unstrip(text)
}

// UnstripNoWiki resolves NoWiki markers in text.
func (s *State) UnstripNoWiki(text string) (string, error) {
	return s.Unstrip(NoWiki, text)
}

// UnstripGeneral resolves General markers in text.
func (s *State) UnstripGeneral(text string) (string, error) {
	return s.Unstrip(General, text)
}

// UnstripBoth resolves NoWiki markers, then General markers.
//
// The order is fixed: General values revealed by the second pass are never
// seen by the NoWiki pass.
func (s *State) UnstripBoth(text string) (string, error) {
	for _, cat := range Categories() {
		var err error
		if text, err = s.Unstrip(cat, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

// unstripper carries the state of one top-level Unstrip call.
type unstripper struct {
	state *State
	cat   Category
	guard map[string]struct{} // identifiers on the current resolution path
	depth int
}

func (u *unstripper) unstrip(text string) (string, error) {
	items := u.state.data[u.cat]
	if len(items) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for m := range FindMarkers(text) {
		b.WriteString(text[last:m.Start])
		last = m.End

		value, ok := items[m.ID]
		if !ok {
			b.WriteString(text[m.Start:m.End])
			continue
		}
		out, err := u.expand(m.ID, value)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	if last == 0 {
		return text, nil
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// expand resolves one bound marker.
func (u *unstripper) expand(id string, value Value) (string, error) {
	if _, busy := u.guard[id]; busy {
		u.state.logger.Warn("unstrip loop detected",
			"category", u.cat,
			"id", id,
			"depth", u.depth,
		)
		return errorSpan(u.state.messages.LoopDetected()), nil
	}
	if u.depth >= u.state.limit {
		u.state.logger.Warn("unstrip recursion limit reached",
			"category", u.cat,
			"id", id,
			"limit", u.state.limit,
		)
		return errorSpan(u.state.messages.RecursionLimitReached(u.state.limit)), nil
	}

	u.guard[id] = struct{}{}
	u.depth++
	defer func() {
		u.depth--
		delete(u.guard, id)
	}()

	raw, err := produce(value)
	if err != nil {
		return "", &ProducerError{Category: u.cat, ID: id, Err: err}
	}
	return u.unstrip(raw)
}

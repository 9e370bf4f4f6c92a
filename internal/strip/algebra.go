package strip

// SubState returns a new State holding only the bindings whose markers occur
// in text. Identifiers, categories and values are kept; markers this State
// does not bind are skipped. The new State shares this State's
// configuration.
//
// Only markers written directly in text count. Markers inside bound values
// are not followed.
func (s *State) SubState(text string) *State {
	sub := s.derive()
	for m := range FindMarkers(text) {
		if cat, v, ok := s.lookup(m.ID); ok {
			sub.data[cat][m.ID] = v
		}
	}
	return sub
}

// Merge absorbs every binding of other under a new identifier and returns
// texts with their markers rewritten to match, in the same order.
//
// Each call draws a fresh tag from the tag generator and renames identifier
// id to tag + "-" + id, even when this State is empty, so every merge lands
// in its own namespace. Original identifiers are never kept. Every marker in
// texts is rewritten, whether or not other binds it, and so are markers
// inside absorbed values: literal values are rewritten here, producers are
// wrapped so their output is rewritten when they run.
//
// If the tag is not a legal identifier Merge returns an InvalidTagError and
// changes nothing.
func (s *State) Merge(other *State, texts []string) ([]string, error) {
	tag := s.tags.Generate()
	if !IsIdentifier(tag) {
		return nil, &InvalidTagError{Tag: tag}
	}
	prefix := tag + "-"
	rename := func(text string) string {
		return replaceMarkers(text, func(m Match) string {
			return Marker(prefix + m.ID)
		})
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = rename(text)
	}

	// Snapshot first: other may be s itself.
	var absorbed []Binding
	for b := range other.Bindings() {
		absorbed = append(absorbed, b)
	}
	for _, b := range absorbed {
		s.data[b.Category][prefix+b.ID] = renameValue(b.Value, rename)
	}

	s.logger.Debug("strip state merged",
		"tag", tag,
		"bindings", len(absorbed),
		"texts", len(texts),
	)
	return out, nil
}

// renameValue applies rename to the text behind v.
func renameValue(v Value, rename func(string) string) Value {
	switch v := v.(type) {
	case Text:
		return Text(rename(string(v)))
	case Producer:
		if v == nil {
			return v
		}
		return Producer(func() (string, error) {
			raw, err := v()
			if err != nil {
				return "", err
			}
			return rename(raw), nil
		})
	default:
		return v
	}
}

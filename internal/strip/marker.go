package strip

import (
	"iter"
	"strings"
)

// Marker delimiters. Both are shared by every State in the process and must
// stay byte-compatible with producers that mint tokens elsewhere.
const (
	Prefix = "\x7f'\"`UNIQ-"
	Suffix = "-QINU`\"'\x7f"
)

// suffixLead is the number of leading Suffix bytes that are also legal
// identifier bytes. The byte after them is reserved, which pins the only
// place a Suffix can start: at the first reserved byte after the identifier.
var suffixLead = strings.IndexFunc(Suffix, func(r rune) bool {
	return r < 0x80 && isReserved(byte(r))
})

// Match is a marker token found in a text.
// Start and End are byte offsets of the whole token, End exclusive.
type Match struct {
	ID    string
	Start int
	End   int
}

// isReserved reports whether c may not appear in an identifier.
func isReserved(c byte) bool {
	switch c {
	case 0x7f, '<', '>', '&', '\'', '"':
		return true
	}
	return false
}

// IsIdentifier reports whether id can be embedded in a marker token.
func IsIdentifier(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if isReserved(id[i]) {
			return false
		}
	}
	return true
}

// Marker returns the marker token for id. It does not check id; use
// IsIdentifier when id comes from outside.
func Marker(id string) string {
	return Prefix + id + Suffix
}

// ParseMarker extracts the identifier from a token. ok is false unless token
// is exactly one well-formed marker.
func ParseMarker(token string) (id string, ok bool) {
	m, found := nextMarker(token, 0)
	if !found || m.Start != 0 || m.End != len(token) {
		return "", false
	}
	return m.ID, true
}

// FindMarkers yields every marker token in text, left to right.
func FindMarkers(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		pos := 0
		for {
			m, ok := nextMarker(text, pos)
			if !ok || !yield(m) {
				return
			}
			pos = m.End
		}
	}
}

// KillMarkers removes every marker token from text without resolving it.
// Removing a token can join its neighbours into a new token, so passes
// repeat until none is left.
func KillMarkers(text string) string {
	for {
		out := replaceMarkers(text, func(Match) string { return "" })
		if out == text {
			return out
		}
		text = out
	}
}

// replaceMarkers rebuilds text with each token replaced by fn's result.
func replaceMarkers(text string, fn func(Match) string) string {
	var b strings.Builder
	last := 0
	for m := range FindMarkers(text) {
		b.WriteString(text[last:m.Start])
		b.WriteString(fn(m))
		last = m.End
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// nextMarker finds the first marker token at or after from.
func nextMarker(text string, from int) (Match, bool) {
	for from < len(text) {
		i := strings.Index(text[from:], Prefix)
		if i < 0 {
			return Match{}, false
		}
		start := from + i
		idStart := start + len(Prefix)

		j := idStart
		for j < len(text) && !isReserved(text[j]) {
			j++
		}

		idEnd := j - suffixLead
		if idEnd > idStart && strings.HasPrefix(text[idEnd:], Suffix) {
			return Match{ID: text[idStart:idEnd], Start: start, End: idEnd + len(Suffix)}, true
		}

		// Prefix starts with a reserved byte, so no token can begin
		// between here and j.
		from = start + 1
	}
	return Match{}, false
}

package strip_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stripmark/internal/strip"
)

func TestMarker_ParseRoundTrip(t *testing.T) {
	ids := []string{"abc123", "nowiki-00000001", "m1-x", "a-QINU`b", "with space", "ünïcode"}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			got, ok := strip.ParseMarker(strip.Marker(id))
			require.True(t, ok)
			assert.Equal(t, id, got)
		})
	}
}

func TestParseMarker_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"plain text", "abc123"},
		{"empty identifier", strip.Prefix + strip.Suffix},
		{"missing suffix", strip.Prefix + "abc"},
		{"missing prefix", "abc" + strip.Suffix},
		{"leading text", "x" + strip.Marker("abc")},
		{"trailing text", strip.Marker("abc") + "x"},
		{"two markers", strip.Marker("a") + strip.Marker("b")},
		{"ampersand", strip.Marker("a&b")},
		{"angle bracket", strip.Marker("a<b")},
		{"quote", strip.Marker("a'b")},
		{"double quote", strip.Marker(`a"b`)},
		{"delete byte", strip.Marker("a\x7fb")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := strip.ParseMarker(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, strip.IsIdentifier("abc"))
	assert.True(t, strip.IsIdentifier("tag-abc_1.2"))
	assert.False(t, strip.IsIdentifier(""))
	assert.False(t, strip.IsIdentifier("a>b"))
	assert.False(t, strip.IsIdentifier("a\x7f"))
}

func TestFindMarkers_LeftToRight(t *testing.T) {
	a, b := strip.Marker("a"), strip.Marker("b")
	text := "x" + a + "yy" + b + b

	var got []strip.Match
	for m := range strip.FindMarkers(text) {
		got = append(got, m)
	}

	require.Len(t, got, 3)
	assert.Equal(t, strip.Match{ID: "a", Start: 1, End: 1 + len(a)}, got[0])
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, got[1].End, got[2].Start)
	for _, m := range got {
		assert.Equal(t, strip.Marker(m.ID), text[m.Start:m.End])
	}
}

func TestFindMarkers_SkipsBrokenPrefix(t *testing.T) {
	// A dangling prefix must not swallow the real marker that follows.
	text := strip.Prefix + "broken<" + strip.Marker("ok")

	var ids []string
	for m := range strip.FindMarkers(text) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"ok"}, ids)
}

func TestFindMarkers_Restartable(t *testing.T) {
	text := strip.Marker("a") + " " + strip.Marker("b")
	seq := strip.FindMarkers(text)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestFindMarkers_EarlyStop(t *testing.T) {
	text := strip.Marker("a") + strip.Marker("b") + strip.Marker("c")

	var ids []string
	for m := range strip.FindMarkers(text) {
		ids = append(ids, m.ID)
		if m.ID == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestKillMarkers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markers", "plain <b>text</b>", "plain <b>text</b>"},
		{"single", "a " + strip.Marker("x") + " b", "a  b"},
		{"adjacent", strip.Marker("x") + strip.Marker("y"), ""},
		{"broken left alone", strip.Prefix + "x", strip.Prefix + "x"},
		{"nested looking", strip.Prefix + strip.Marker("x") + strip.Suffix, strip.Prefix + strip.Suffix},
		{"joined by removal", strip.Prefix + "z" + strip.Marker("x") + strip.Suffix, ""},
		{"joined twice", strip.Prefix + "a" + strip.Prefix + "z" + strip.Marker("x") + strip.Suffix + strip.Suffix + "!", "!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strip.KillMarkers(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, strip.KillMarkers(got), "KillMarkers must be idempotent")
		})
	}
}

func TestCategory_StringAndParse(t *testing.T) {
	for _, cat := range strip.Categories() {
		parsed, err := strip.ParseCategory(cat.String())
		require.NoError(t, err)
		assert.Equal(t, cat, parsed)
	}

	_, err := strip.ParseCategory("both")
	assert.ErrorIs(t, err, strip.ErrUnknownCategory)
	assert.Equal(t, []strip.Category{strip.NoWiki, strip.General}, strip.Categories())
}

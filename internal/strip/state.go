package strip

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
)

// DefaultRecursionLimit is the default maximum nesting depth of markers
// inside bound values.
const DefaultRecursionLimit = 20

// State holds stripped items, one identifier→value map per category.
//
// Bindings are append-only: Add may overwrite but nothing removes. Unstrip
// does not consume bindings, so the same State can resolve any number of
// texts.
type State struct {
	data [numCategories]map[string]Value

	limit    int
	messages Messages
	tags     TagGenerator
	logger   *slog.Logger
}

// Option configures a State.
type Option func(*State)

// WithRecursionLimit sets the maximum nesting depth for Unstrip.
//
// Default: 20 (DefaultRecursionLimit). Values below 1 are ignored.
func WithRecursionLimit(limit int) Option {
	return func(s *State) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithMessages sets the source of the loop and recursion-limit texts.
func WithMessages(m Messages) Option {
	return func(s *State) {
		if m != nil {
			s.messages = m
		}
	}
}

// WithTagGenerator sets the source of merge tags.
func WithTagGenerator(g TagGenerator) Option {
	return func(s *State) {
		if g != nil {
			s.tags = g
		}
	}
}

// WithLogger sets the logger for loop and limit warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty State.
func New(opts ...Option) *State {
	s := &State{
		limit:    DefaultRecursionLimit,
		messages: DefaultMessages(),
		tags:     RandomTagGenerator{},
		logger:   slog.Default(),
	}
	for i := range s.data {
		s.data[i] = make(map[string]Value)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// derive returns an empty State with the same configuration as s.
func (s *State) derive() *State {
	return New(
		WithRecursionLimit(s.limit),
		WithMessages(s.messages),
		WithTagGenerator(s.tags),
		WithLogger(s.logger),
	)
}

// RecursionLimit returns the configured maximum nesting depth.
func (s *State) RecursionLimit() int {
	return s.limit
}

// Add binds value to the identifier of marker in category cat, replacing
// any earlier binding of that identifier in cat.
//
// marker must be a token produced by Marker; anything else is rejected with
// an InvalidMarkerError.
func (s *State) Add(cat Category, marker string, value Value) error {
	if !cat.valid() {
		return fmt.Errorf("add: %w: %s", ErrUnknownCategory, cat)
	}
	id, ok := ParseMarker(marker)
	if !ok {
		return &InvalidMarkerError{Marker: marker}
	}
	s.data[cat][id] = value
	return nil
}

// AddNoWiki binds value in the NoWiki category.
func (s *State) AddNoWiki(marker string, value Value) error {
	return s.Add(NoWiki, marker, value)
}

// AddGeneral binds value in the General category.
func (s *State) AddGeneral(marker string, value Value) error {
	return s.Add(General, marker, value)
}

// Len returns the number of bindings in cat.
func (s *State) Len(cat Category) int {
	if !cat.valid() {
		return 0
	}
	return len(s.data[cat])
}

// Bindings yields every binding ordered by category, then identifier.
func (s *State) Bindings() iter.Seq[Binding] {
	return func(yield func(Binding) bool) {
		for _, cat := range Categories() {
			for _, id := range slices.Sorted(maps.Keys(s.data[cat])) {
				if !yield(Binding{Category: cat, ID: id, Value: s.data[cat][id]}) {
					return
				}
			}
		}
	}
}

// lookup finds id in the first category that binds it.
func (s *State) lookup(id string) (Category, Value, bool) {
	for _, cat := range Categories() {
		if v, ok := s.data[cat][id]; ok {
			return cat, v, true
		}
	}
	return 0, nil, false
}

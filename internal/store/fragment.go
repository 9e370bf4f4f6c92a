package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stripmark/internal/canon"
	"github.com/roach88/stripmark/internal/strip"
)

var (
	// ErrNotFound is returned when no fragment has the requested ID.
	ErrNotFound = errors.New("fragment not found")

	// ErrDeferredValue is returned when a fragment references a binding
	// whose value is a producer. Producers only exist in memory.
	ErrDeferredValue = errors.New("deferred values cannot be stored")
)

// Fragment is a stored text with the bindings its text references directly.
type Fragment struct {
	ID    string
	Seq   int64
	Name  string
	Text  string
	State *strip.State
}

// FragmentSummary describes a stored fragment without loading its state.
type FragmentSummary struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Name     string `json:"name"`
	Bindings int    `json:"bindings"`
}

// SaveFragment stores text together with the bindings of st it references
// and returns the fragment's content-addressed ID.
//
// Only markers written in text itself are kept, as with strip.State.SubState.
// A binding reached only through another binding's value is not stored, and
// its marker stays literal when the loaded fragment is unstripped. Callers
// that need it must mention it in text.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: saving an identical
// fragment again returns the existing ID and keeps the first name.
// Returns ErrDeferredValue if any referenced binding is a producer.
func (s *Store) SaveFragment(ctx context.Context, name, text string, st *strip.State) (string, error) {
	sub := st.SubState(text)

	var items []strip.Binding
	byCategory := make(map[string]map[string]string)
	for b := range sub.Bindings() {
		lit, ok := b.Value.(strip.Text)
		if !ok && b.Value != nil {
			return "", fmt.Errorf("save fragment: %s marker %q: %w", b.Category, b.ID, ErrDeferredValue)
		}
		b.Value = lit
		items = append(items, b)

		cat := b.Category.String()
		if byCategory[cat] == nil {
			byCategory[cat] = make(map[string]string)
		}
		byCategory[cat][b.ID] = string(lit)
	}

	id, err := canon.FragmentID(text, byCategory)
	if err != nil {
		return "", fmt.Errorf("save fragment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save fragment: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO fragments (id, name, text)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name, text)
	if err != nil {
		return "", fmt.Errorf("save fragment: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("save fragment: rows affected: %w", err)
	}

	if inserted > 0 {
		for _, b := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO bindings (fragment_id, category, marker_id, value)
				VALUES (?, ?, ?, ?)
			`, id, b.Category.String(), b.ID, string(b.Value.(strip.Text)))
			if err != nil {
				return "", fmt.Errorf("save fragment: binding %q: %w", b.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save fragment: commit: %w", err)
	}
	return id, nil
}

// LoadFragment reads a fragment and rebuilds its state with opts.
// Returns ErrNotFound if no fragment has the given ID.
func (s *Store) LoadFragment(ctx context.Context, id string, opts ...strip.Option) (*Fragment, error) {
	frag := &Fragment{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, name, text FROM fragments WHERE id = ?
	`, id).Scan(&frag.Seq, &frag.Name, &frag.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load fragment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load fragment %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, marker_id, value
		FROM bindings
		WHERE fragment_id = ?
		ORDER BY category COLLATE BINARY ASC, marker_id COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	frag.State = strip.New(opts...)
	for rows.Next() {
		var catName, markerID, value string
		if err := rows.Scan(&catName, &markerID, &value); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		cat, err := strip.ParseCategory(catName)
		if err != nil {
			return nil, fmt.Errorf("load fragment %s: %w", id, err)
		}
		if err := frag.State.Add(cat, strip.Marker(markerID), strip.Text(value)); err != nil {
			return nil, fmt.Errorf("load fragment %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}

	return frag, nil
}

// ListFragments returns every stored fragment ordered by seq.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListFragments(ctx context.Context) ([]FragmentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.seq, f.name, COUNT(b.marker_id)
		FROM fragments f
		LEFT JOIN bindings b ON b.fragment_id = f.id
		GROUP BY f.seq, f.id, f.name
		ORDER BY f.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query fragments: %w", err)
	}
	defer rows.Close()

	summaries := []FragmentSummary{}
	for rows.Next() {
		var sum FragmentSummary
		if err := rows.Scan(&sum.ID, &sum.Seq, &sum.Name, &sum.Bindings); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}
	return summaries, nil
}

package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/stripmark/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s calls=%v\n", event.Seq, event.Op, event.Document, event.Calls)
		}
	}

	return buf.String()
}

// assertProducedCount checks that a binding's producer ran exactly Count
// times over the whole scenario. Producers are never cached, so every
// resolution that reaches a lazy binding counts.
func assertProducedCount(result *Result, assertion Assertion) error {
	count := 0
	for _, call := range result.Calls {
		if call == assertion.Binding {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertProducedCount,
			Expected: fmt.Sprintf("%d calls of %s", assertion.Count, assertion.Binding),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertCallOrder checks that the expected calls appear in order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertCallOrder(result *Result, assertion Assertion) error {
	next := 0
	for _, call := range result.Calls {
		if next < len(assertion.Calls) && call == assertion.Calls[next] {
			next++
		}
	}

	if next < len(assertion.Calls) {
		return &AssertionError{
			Type:     AssertCallOrder,
			Expected: fmt.Sprintf("calls in order: %v", assertion.Calls),
			Actual:   fmt.Sprintf("%v (missing %s)", result.Calls, assertion.Calls[next]),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalBindings checks the exact set of bindings a working document
// holds after all steps.
func assertFinalBindings(docs map[string]*workingDoc, assertion Assertion) error {
	doc, ok := docs[assertion.Document]
	if !ok {
		return fmt.Errorf("final_bindings: unknown document %q", assertion.Document)
	}

	actual := bindingKeys(doc.state)
	expected := slices.Clone(assertion.Bindings)
	slices.Sort(expected)
	sorted := slices.Clone(actual)
	slices.Sort(sorted)

	if !slices.Equal(expected, sorted) {
		return &AssertionError{
			Type:     AssertFinalBindings,
			Expected: fmt.Sprintf("%s holds %v", assertion.Document, assertion.Bindings),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertStoredCount checks how many fragments the store holds.
func assertStoredCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	fragments, err := st.ListFragments(ctx)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredCount,
			Expected: fmt.Sprintf("%d fragments", assertion.Count),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	if len(fragments) != assertion.Count {
		return &AssertionError{
			Type:     AssertStoredCount,
			Expected: fmt.Sprintf("%d fragments", assertion.Count),
			Actual:   fmt.Sprintf("%d fragments", len(fragments)),
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	Docs  map[string]*workingDoc
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides store and document access; assertions that
// need it fail when it is missing.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertProducedCount:
			err = assertProducedCount(result, assertion)
		case AssertCallOrder:
			err = assertCallOrder(result, assertion)
		case AssertFinalBindings:
			if actx == nil || actx.Docs == nil {
				err = fmt.Errorf("assertion[%d]: final_bindings requires document context", i)
			} else {
				err = assertFinalBindings(actx.Docs, assertion)
			}
		case AssertStoredCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored_count requires database context", i)
			} else {
				err = assertStoredCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

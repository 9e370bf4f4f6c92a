package harness

// TraceEvent records one executed step.
//
// Output is shown with markers collapsed to @@id@@ so traces stay readable
// and free of control characters.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Op       string   `json:"op"`
	Document string   `json:"document"`
	Category string   `json:"category,omitempty"`
	With     string   `json:"with,omitempty"`
	Output   string   `json:"output"`
	Calls    []string `json:"calls,omitempty"`    // producers run by this step, "category:id"
	Bindings []string `json:"bindings,omitempty"` // bindings held after this step, "category:id"
	Error    string   `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Calls lists every producer invocation of the scenario in order.
	Calls []string `json:"calls,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}

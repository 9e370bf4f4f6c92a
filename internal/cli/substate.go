package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stripmark/internal/document"
	"github.com/roach88/stripmark/internal/strip"
)

// SubStateOptions holds flags for the substate command.
type SubStateOptions struct {
	*RootOptions
	Text string // replaces the document text, @@id@@ expanded
}

// BindingView describes one binding for output.
type BindingView struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Value    string `json:"value,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
}

// SubStateResult is the JSON payload of the substate command.
type SubStateResult struct {
	Document string        `json:"document"`
	Bindings []BindingView `json:"bindings"`
}

// NewSubStateCommand creates the substate command.
func NewSubStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubStateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "substate <document>",
		Short: "List the bindings a text references directly",
		Long: `List the bindings whose markers occur directly in the document text.

Markers inside bound values are not followed, and deferred values are
listed without running them.

Examples:
  stripmark substate page.yaml
  stripmark substate page.yaml --text "only @@n1@@"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubState(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "text to extract from instead of the document text")

	return cmd
}

func runSubState(opts *SubStateOptions, path string, cmd *cobra.Command) error {
	loaded, err := loadDocument(path, opts.Logger(), opts.StateOptions()...)
	if err != nil {
		return err
	}

	text := loaded.Text
	if opts.Text != "" {
		text = document.Expand(opts.Text)
	}

	sub := loaded.State.SubState(text)
	result := SubStateResult{
		Document: loaded.Doc.Name,
		Bindings: viewBindings(sub),
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Bindings) == 0 {
		fmt.Fprintln(w, "No bindings referenced.")
		return nil
	}
	for _, b := range result.Bindings {
		if b.Deferred {
			fmt.Fprintf(w, "%-8s %s (deferred)\n", b.Category, b.ID)
			continue
		}
		fmt.Fprintf(w, "%-8s %s = %q\n", b.Category, b.ID, b.Value)
	}
	return nil
}

// viewBindings lists st's bindings without running producers.
func viewBindings(st *strip.State) []BindingView {
	views := []BindingView{}
	for b := range st.Bindings() {
		view := BindingView{Category: b.Category.String(), ID: b.ID}
		if strip.IsDeferred(b.Value) {
			view.Deferred = true
		} else if text, ok := b.Value.(strip.Text); ok {
			view.Value = document.Collapse(string(text))
		}
		views = append(views, view)
	}
	return views
}

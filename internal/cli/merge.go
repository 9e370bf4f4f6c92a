package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stripmark/internal/strip"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	NoResolve bool
	Raw       bool

	// TagGenerator allows overriding the merge tag generator (for testing).
	// If nil, defaults to strip.RandomTagGenerator.
	TagGenerator strip.TagGenerator
}

// MergeResult is the JSON payload of the merge command.
type MergeResult struct {
	Document string        `json:"document"`
	With     string        `json:"with"`
	Output   string        `json:"output"`
	Bindings []BindingView `json:"bindings"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <document> <other>",
		Short: "Merge one document's bindings into another",
		Long: `Merge the bindings of <other> into <document> and append <other>'s text.

Every identifier of <other> is renamed under a fresh random tag, in its
bindings and in its text, so the two documents cannot collide. The combined
text is resolved unless --no-resolve is given.

Examples:
  stripmark merge page.yaml sidebar.cue
  stripmark merge page.yaml page.yaml --no-resolve --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoResolve, "no-resolve", false, "print the merged text without resolving it")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print marker tokens verbatim")

	return cmd
}

func runMerge(opts *MergeOptions, path, otherPath string, cmd *cobra.Command) error {
	gen := opts.TagGenerator
	if gen == nil {
		gen = strip.RandomTagGenerator{}
	}
	stateOpts := append(opts.StateOptions(), strip.WithTagGenerator(gen))

	receiver, err := loadDocument(path, opts.Logger(), stateOpts...)
	if err != nil {
		return err
	}
	other, err := loadDocument(otherPath, opts.Logger(), stateOpts...)
	if err != nil {
		return err
	}

	merged, err := receiver.State.Merge(other.State, []string{other.Text})
	if err != nil {
		return WrapExitError(ExitFailure, "merge failed", err)
	}
	out := receiver.Text + merged[0]

	if !opts.NoResolve {
		if out, err = receiver.State.UnstripBoth(out); err != nil {
			return resolveError(err)
		}
	}
	out = display(out, opts.Raw)

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(MergeResult{
			Document: receiver.Doc.Name,
			With:     other.Doc.Name,
			Output:   out,
			Bindings: viewBindings(receiver.State),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

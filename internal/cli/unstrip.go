package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stripmark/internal/strip"
)

// UnstripOptions holds flags for the unstrip command.
type UnstripOptions struct {
	*RootOptions
	Category string // "nowiki" | "general" | "both"
	Raw      bool   // print marker tokens instead of @@id@@
}

// UnstripResult is the JSON payload of the unstrip command.
type UnstripResult struct {
	Document string `json:"document"`
	Category string `json:"category"`
	Output   string `json:"output"`
}

// NewUnstripCommand creates the unstrip command.
func NewUnstripCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UnstripOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unstrip <document>",
		Short: "Resolve a document's markers",
		Long: `Resolve every bound marker in a document's text.

Both categories are resolved by default, nowiki first. Unbound markers are
left in place and printed as @@id@@ unless --raw is given. Cycles and
chains deeper than --limit render as inline error spans.

Examples:
  stripmark unstrip page.yaml
  stripmark unstrip page.cue --category nowiki
  stripmark unstrip page.yaml --lang de --limit 5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnstrip(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "both", "category to resolve (nowiki|general|both)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print marker tokens verbatim")

	return cmd
}

func runUnstrip(opts *UnstripOptions, path string, cmd *cobra.Command) error {
	var cat strip.Category
	if opts.Category != "both" {
		var err error
		if cat, err = strip.ParseCategory(opts.Category); err != nil {
			return WrapExitError(ExitCommandError, "invalid --category", err)
		}
	}

	loaded, err := loadDocument(path, opts.Logger(), opts.StateOptions()...)
	if err != nil {
		return err
	}

	var out string
	if opts.Category == "both" {
		out, err = loaded.State.UnstripBoth(loaded.Text)
	} else {
		out, err = loaded.State.Unstrip(cat, loaded.Text)
	}
	if err != nil {
		return resolveError(err)
	}

	out = display(out, opts.Raw)
	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(UnstripResult{
			Document: loaded.Doc.Name,
			Category: opts.Category,
			Output:   out,
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

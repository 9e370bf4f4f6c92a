package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stripmark/internal/strip"
)

// NewKillCommand creates the kill command.
func NewKillCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <document>",
		Short: "Print a document's text with every marker removed",
		Long: `Print a document's text with every marker token deleted, bound or not.

Example:
  stripmark kill page.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadDocument(args[0], rootOpts.Logger(), rootOpts.StateOptions()...)
			if err != nil {
				return err
			}

			out := strip.KillMarkers(loaded.Text)
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(map[string]string{
					"document": loaded.Doc.Name,
					"output":   out,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

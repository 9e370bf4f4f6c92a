package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/stripmark/internal/strip"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Lang    string // message language for inline error spans
	Limit   int    // recursion limit, 0 means strip.DefaultRecursionLimit

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stripmark CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stripmark",
		Short: "stripmark - marker substitution toolkit",
		Long: `Inspect and resolve texts whose fragments are hidden behind marker tokens.

Documents are YAML or CUE files holding a text and the bindings its
markers refer to. In document files, @@id@@ stands for the marker of id.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := language.Parse(opts.Lang); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid language %q", opts.Lang), err)
			}
			if opts.Limit < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must be non-negative", opts.Limit))
			}
			opts.configureLogging(cmd.ErrOrStderr())
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Lang, "lang", "en", "language of inline error messages")
	cmd.PersistentFlags().IntVar(&opts.Limit, "limit", 0, "unstrip recursion limit (0 = default)")

	// Add subcommands
	cmd.AddCommand(NewUnstripCommand(opts))
	cmd.AddCommand(NewKillCommand(opts))
	cmd.AddCommand(NewSubStateCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the command line in args and reports a failure in the
// selected output format. It returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := usageExitCode(err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return code
	}
	format, _ := cmd.PersistentFlags().GetString("format")
	verbose, _ := cmd.PersistentFlags().GetBool("verbose")
	f := &OutputFormatter{Format: format, Writer: stderr, Verbose: verbose}
	if format == "json" {
		f.Writer = stdout
	}

	var details any
	if exitErr != nil && exitErr.Err != nil {
		details = exitErr.Err.Error()
	}
	_ = f.Error(errorCode(code), err.Error(), details)
	return code
}

// usageExitCode is GetExitCode for errors leaving cobra. Errors that are not
// an ExitError come from flag parsing, argument validation or command lookup
// and count as command errors.
func usageExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// configureLogging sends structured logs to w, at debug level when verbose.
func (o *RootOptions) configureLogging(w io.Writer) {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Logger returns the configured logger, or the default logger before
// PersistentPreRunE has run (commands executed directly in tests).
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// StateOptions turns the global flags into strip options.
func (o *RootOptions) StateOptions() []strip.Option {
	opts := []strip.Option{strip.WithLogger(o.Logger())}
	if o.Limit > 0 {
		opts = append(opts, strip.WithRecursionLimit(o.Limit))
	}
	if o.Lang != "" {
		if tag, err := language.Parse(o.Lang); err == nil {
			opts = append(opts, strip.WithMessages(strip.NewMessages(tag)))
		}
	}
	return opts
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

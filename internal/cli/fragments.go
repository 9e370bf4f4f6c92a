package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stripmark/internal/store"
)

// FragmentOptions holds flags shared by the fragment store commands.
type FragmentOptions struct {
	*RootOptions
	Database string
	Raw      bool
}

// SaveResult is the JSON payload of the save command.
type SaveResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Bindings int    `json:"bindings"`
}

// LoadResult is the JSON payload of the load command.
type LoadResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Output   string        `json:"output"`
	Bindings []BindingView `json:"bindings"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FragmentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <document>",
		Short: "Store a document as a fragment",
		Long: `Store a document's text and the bindings it references directly.

The fragment ID is derived from the content, so saving the same document
twice yields the same ID. Documents whose text references lazy bindings
cannot be stored.

Example:
  stripmark save --db ./fragments.db page.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FragmentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <fragment-id>",
		Short: "Load a stored fragment and resolve it",
		Long: `Load a stored fragment and print its resolved text.

Example:
  stripmark load --db ./fragments.db 3f1c...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print marker tokens verbatim")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FragmentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored fragments",
		Long: `List stored fragments in the order they were first saved.

Example:
  stripmark list --db ./fragments.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSave(opts *FragmentOptions, path string, cmd *cobra.Command) error {
	loaded, err := loadDocument(path, opts.Logger(), opts.StateOptions()...)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	id, err := st.SaveFragment(ctxOf(cmd), loaded.Doc.Name, loaded.Text, loaded.State)
	if err != nil {
		if errors.Is(err, store.ErrDeferredValue) {
			return WrapExitError(ExitFailure, "document cannot be stored", err)
		}
		return WrapExitError(ExitCommandError, "failed to save fragment", err)
	}

	bindings := 0
	for range loaded.State.SubState(loaded.Text).Bindings() {
		bindings++
	}
	opts.Logger().Info("fragment saved", "id", id, "name", loaded.Doc.Name, "bindings", bindings)

	result := SaveResult{ID: id, Name: loaded.Doc.Name, Bindings: bindings}
	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runLoad(opts *FragmentOptions, id string, cmd *cobra.Command) error {
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	frag, err := st.LoadFragment(ctxOf(cmd), id, opts.StateOptions()...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("fragment %s not found", id), err)
		}
		return WrapExitError(ExitCommandError, "failed to load fragment", err)
	}

	out, err := frag.State.UnstripBoth(frag.Text)
	if err != nil {
		return resolveError(err)
	}
	out = display(out, opts.Raw)

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(LoadResult{
			ID:       frag.ID,
			Name:     frag.Name,
			Output:   out,
			Bindings: viewBindings(frag.State),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runList(opts *FragmentOptions, cmd *cobra.Command) error {
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	fragments, err := st.ListFragments(ctxOf(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list fragments", err)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(fragments)
	}

	w := cmd.OutOrStdout()
	if len(fragments) == 0 {
		fmt.Fprintln(w, "No fragments stored.")
		return nil
	}
	for _, frag := range fragments {
		fmt.Fprintf(w, "%s  %-20s %d binding(s)\n", frag.ID, frag.Name, frag.Bindings)
	}
	return nil
}

// openExisting opens a database that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/stripmark/internal/document"
	"github.com/roach88/stripmark/internal/strip"
)

// loadedDocument is a document built into a state, ready for commands.
type loadedDocument struct {
	Doc   *document.Document
	State *strip.State
	Text  string
}

// loadDocument reads and builds the document at path. Lazy bindings log
// each run at debug level. Failures carry ExitCommandError.
func loadDocument(path string, logger *slog.Logger, opts ...strip.Option) (*loadedDocument, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load document", err)
	}

	hook := func(cat strip.Category, id string) {
		logger.Debug("producing deferred value", "document", doc.Name, "category", cat, "id", id)
	}
	st, text, err := doc.Build(hook, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build document", err)
	}

	logger.Debug("document loaded",
		"document", doc.Name,
		"nowiki", st.Len(strip.NoWiki),
		"general", st.Len(strip.General),
	)
	return &loadedDocument{Doc: doc, State: st, Text: text}, nil
}

// resolveError maps an unstrip failure to an exit error.
func resolveError(err error) error {
	var perr *strip.ProducerError
	if errors.As(err, &perr) {
		return WrapExitError(ExitFailure, fmt.Sprintf("deferred value %s:%s failed", perr.Category, perr.ID), perr.Err)
	}
	return WrapExitError(ExitFailure, "unstrip failed", err)
}

// display renders text for humans unless raw output was requested.
func display(text string, raw bool) string {
	if raw {
		return text
	}
	return document.Collapse(text)
}

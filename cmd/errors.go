package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/engine"
	"github.com/marcus/tdash/internal/output"
	"github.com/marcus/tdash/internal/remote"
	"github.com/marcus/tdash/internal/workflow"
)

// errCode classifies err for --json error output.
func errCode(err error) string {
	var te *workflow.TransitionError
	switch {
	case errors.Is(err, engine.ErrTaskNotFound), errors.Is(err, remote.ErrNotFound):
		return output.ErrCodeNotFound
	case errors.Is(err, db.ErrQuotaExceeded):
		return output.ErrCodeQuotaExceeded
	case errors.Is(err, remote.ErrUnauthorized), errors.Is(err, remote.ErrForbidden):
		return output.ErrCodeUnauthorized
	case errors.Is(err, engine.ErrEmptyTitle), errors.Is(err, engine.ErrNotDeleted),
		errors.Is(err, engine.ErrUnknownView), errors.As(err, &te):
		return output.ErrCodeInvalidInput
	}
	return output.ErrCodeDatabaseError
}

// reportError prints err styled, or as a JSON object when the failing
// command was asked for JSON.
func reportError(cmd *cobra.Command, err error) {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
			output.JSONError(errCode(err), err.Error())
			return
		}
	}
	output.Error("%v", err)
}

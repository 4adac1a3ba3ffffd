// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the shire CLI.
//
// This package defines BuildError, a type that carries structured error
// information including what went wrong, why it happened, and how to fix
// it. It also defines consistent exit codes for different error categories,
// mapped onto the fatal-error taxonomy of the indexing pipeline: database
// errors and bad CLI preconditions are fatal and abort the build; I/O,
// parse, and extractor failures are recovered locally and never reach
// this package.
//
// # Usage Example
//
//	err := errors.NewDatabaseError(
//	    "cannot open .shire/index.db",
//	    "the database file is locked by another shire process",
//	    "wait for the other build to finish, or remove .shire/index.db-wal",
//	    underlyingErr,
//	)
//	if err != nil {
//	    errors.FatalError(err, false)
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): successful build, even with recorded parse failures
//   - ExitConfig (1): shire.toml unreadable or invalid (a missing file is not an error)
//   - ExitDatabase (2): store open/migrate/transaction errors
//   - ExitInput (4): bad CLI arguments
//   - ExitPermission (5): filesystem permission errors
//   - ExitNotFound (6): db missing for `serve`, repo root missing for `build`
//   - ExitInternal (10): invariant violations / bugs
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates an unreadable or invalid shire.toml.
	ExitConfig = 1

	// ExitDatabase indicates store errors (locked, corrupted, migration failure).
	ExitDatabase = 2

	// ExitNetwork is unused by the indexing core (no network I/O) but kept
	// for exit-code parity with collaborator processes sharing this package.
	ExitNetwork = 3

	// ExitInput indicates invalid CLI arguments.
	ExitInput = 4

	// ExitPermission indicates permission denied errors (file access, etc.).
	ExitPermission = 5

	// ExitNotFound indicates a missing repo root or missing database file.
	ExitNotFound = 6

	// ExitInternal indicates internal errors (invariant violations, bugs).
	ExitInternal = 10
)

// BuildError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: what went wrong
//   - Cause: why it happened
//   - Fix: how to fix it
//
// BuildError carries an exit code for consistent CLI exit behavior and
// optionally wraps an underlying error for error chain compatibility.
type BuildError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error that caused this error (optional).
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements error unwrapping for compatibility with errors.Is/As.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Use this for errors loading or validating shire.toml.
func NewConfigError(msg, cause, fix string, err error) *BuildError {
	return &BuildError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitConfig, Err: err}
}

// NewDatabaseError creates a database error with exit code ExitDatabase.
//
// Use this for store-open, migration, and transaction failures — the one
// error class the pipeline treats as fatal per spec.md §7.
func NewDatabaseError(msg, cause, fix string, err error) *BuildError {
	return &BuildError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitDatabase, Err: err}
}

// NewInputError creates an input validation error with exit code ExitInput.
//
// Input errors typically do not wrap an underlying error.
func NewInputError(msg, cause, fix string) *BuildError {
	return &BuildError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInput}
}

// NewPermissionError creates a permission denied error with exit code ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *BuildError {
	return &BuildError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitPermission, Err: err}
}

// NewNotFoundError creates a resource-not-found error with exit code ExitNotFound.
//
// Use this when `serve` is invoked without a database, or `build` is pointed
// at a repo root that does not exist.
func NewNotFoundError(msg, cause, fix string) *BuildError {
	return &BuildError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNotFound}
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for invariant violations that indicate a bug in the pipeline
// itself (e.g. a phase transaction left the database in a state the next
// phase didn't expect).
func NewInternalError(msg, cause, fix string, err error) *BuildError {
	return &BuildError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, Err: err}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// Color output respects the NO_COLOR environment variable and can be
// explicitly disabled with the noColor parameter. Empty Cause or Fix
// fields are omitted from the output.
func (e *BuildError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the BuildError to a JSON-serializable structure.
func (e *BuildError) ToJSON() ErrorJSON {
	return ErrorJSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// FatalError prints the error and exits with the appropriate code.
//
// If the error is a *BuildError, it uses Format() for colored output or
// ToJSON() for JSON mode. For non-BuildError types, it prints a simple
// error message and exits with ExitInternal.
//
// This function never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if be, ok := err.(*BuildError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(be.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, be.Format(false))
		}
		os.Exit(be.ExitCode)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}

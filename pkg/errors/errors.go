package errors

import (
	"fmt"
)

// ProjectExistsError is returned when registering a name that is already taken.
type ProjectExistsError struct {
	Name string
}

// NewProjectExistsError constructs a ProjectExistsError.
func NewProjectExistsError(name string) error {
	return &ProjectExistsError{Name: name}
}

func (e *ProjectExistsError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("project '%s' already exists", e.Name)
}

// ProjectNotFoundError is returned when an operation targets an unknown project.
type ProjectNotFoundError struct {
	Name string
}

// NewProjectNotFoundError constructs a ProjectNotFoundError.
func NewProjectNotFoundError(name string) error {
	return &ProjectNotFoundError{Name: name}
}

func (e *ProjectNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("project '%s' not found", e.Name)
}

// InvalidPathError reports a project path that does not exist or is not a directory.
type InvalidPathError struct {
	Path    string
	Message string
}

// NewInvalidPathError constructs an InvalidPathError.
func NewInvalidPathError(path, message string) error {
	return &InvalidPathError{Path: path, Message: message}
}

func (e *InvalidPathError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid path '%s': %s", e.Path, e.Message)
}

// PortExhaustedError is returned when a port range has no free slot left.
type PortExhaustedError struct {
	Kind  string
	Start int
	End   int
}

// NewPortExhaustedError constructs a PortExhaustedError for the given range.
func NewPortExhaustedError(kind string, start, end int) error {
	return &PortExhaustedError{Kind: kind, Start: start, End: end}
}

func (e *PortExhaustedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("no available %s ports in range %d-%d", e.Kind, e.Start, e.End)
}

// SupervisorErrorKind classifies failures when talking to the process supervisor.
type SupervisorErrorKind string

const (
	// SupervisorUnavailable means the supervisor binary could not be found.
	SupervisorUnavailable SupervisorErrorKind = "unavailable"
	// SupervisorTimeout means a supervisor command exceeded its deadline.
	SupervisorTimeout SupervisorErrorKind = "timeout"
	// SupervisorCommandFailed means the supervisor returned a non-zero exit.
	SupervisorCommandFailed SupervisorErrorKind = "command_failed"
)

// SupervisorError wraps a failed interaction with the external process supervisor.
type SupervisorError struct {
	Kind    SupervisorErrorKind
	Command string
	Detail  string
	Err     error
}

// NewSupervisorError constructs a SupervisorError.
func NewSupervisorError(kind SupervisorErrorKind, command, detail string, err error) error {
	return &SupervisorError{Kind: kind, Command: command, Detail: detail, Err: err}
}

func (e *SupervisorError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return fmt.Sprintf("supervisor %s [%s]: %s", e.Kind, e.Command, e.Detail)
	}
	return fmt.Sprintf("supervisor %s [%s]: %v", e.Kind, e.Command, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SupervisorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

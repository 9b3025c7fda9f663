package types

import "fmt"

// ErrorKind tags a WorkflowError with one of the taxonomy entries of §7.
// All variants are terminal: nothing in this module retries an error.
type ErrorKind string

const (
	KindValidation           ErrorKind = "Validation"
	KindStaticTypeMismatch   ErrorKind = "StaticTypeMismatch"
	KindNameResolution       ErrorKind = "NameResolution"
	KindArgumentCountMismatch ErrorKind = "ArgumentCountMismatch"
	KindRuntime              ErrorKind = "Runtime"
	KindOutOfBounds           ErrorKind = "OutOfBounds"
	KindMissingInput          ErrorKind = "MissingInput"
	KindCommandEvalError      ErrorKind = "CommandEvalError"
	KindSpawnError            ErrorKind = "SpawnError"
	KindFilesystemError       ErrorKind = "FilesystemError"
	KindNonZeroExit           ErrorKind = "NonZeroExit"
	KindTaskTimeout           ErrorKind = "TaskTimeout"
	KindOutputEvalError       ErrorKind = "OutputEvalError"
	KindOutputTypeMismatch    ErrorKind = "OutputTypeMismatch"
)

// SourcePosition locates an AST node in its originating document, per §6.
type SourcePosition struct {
	URI    string
	Line   int
	Column int
}

func (p SourcePosition) String() string {
	if p.URI == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", p.URI, p.Line, p.Column)
}

// WorkflowError is the single error type carried across every boundary
// named in §7: a tagged kind, a message, an optional source position, and
// an optional wrapped cause for errors.Unwrap support.
type WorkflowError struct {
	Kind     ErrorKind
	Message  string
	Position *SourcePosition
	Cause    error

	// set by NonZeroExit / TaskTimeout
	ExitCode int
	TaskName string
}

func (e *WorkflowError) Error() string {
	if e.Position != nil && e.Position.URI != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Position)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, msg string, pos *SourcePosition) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: msg, Position: pos}
}

func NewValidationError(msg string, pos *SourcePosition) *WorkflowError {
	return newErr(KindValidation, msg, pos)
}

func NewStaticTypeMismatch(expected, actual string, pos *SourcePosition) *WorkflowError {
	return newErr(KindStaticTypeMismatch, fmt.Sprintf("expected %s, got %s", expected, actual), pos)
}

func NewNameResolutionError(name string, pos *SourcePosition) *WorkflowError {
	return newErr(KindNameResolution, fmt.Sprintf("unresolved name '%s'", name), pos)
}

func NewArgumentCountMismatch(fn string, want, got int) *WorkflowError {
	return newErr(KindArgumentCountMismatch, fmt.Sprintf("%s expects %d argument(s), got %d", fn, want, got), nil)
}

func NewRuntimeError(msg string) *WorkflowError { return newErr(KindRuntime, msg, nil) }

func NewOutOfBoundsError(msg string) *WorkflowError { return newErr(KindOutOfBounds, msg, nil) }

func NewMissingInputError(name string) *WorkflowError {
	return newErr(KindMissingInput, fmt.Sprintf("missing required input '%s'", name), nil)
}

func NewCommandEvalError(msg string) *WorkflowError { return newErr(KindCommandEvalError, msg, nil) }

func NewSpawnError(cause error) *WorkflowError {
	e := newErr(KindSpawnError, cause.Error(), nil)
	e.Cause = cause
	return e
}

func NewFilesystemError(cause error) *WorkflowError {
	e := newErr(KindFilesystemError, cause.Error(), nil)
	e.Cause = cause
	return e
}

func NewNonZeroExit(code int, stderr string) *WorkflowError {
	e := newErr(KindNonZeroExit, stderr, nil)
	e.ExitCode = code
	return e
}

func NewTaskTimeout(taskName string) *WorkflowError {
	e := newErr(KindTaskTimeout, fmt.Sprintf("task '%s' exceeded its timeout", taskName), nil)
	e.TaskName = taskName
	return e
}

func NewOutputEvalError(msg string) *WorkflowError { return newErr(KindOutputEvalError, msg, nil) }

func NewOutputTypeMismatch(name, expected, actual string) *WorkflowError {
	return newErr(KindOutputTypeMismatch, fmt.Sprintf("output '%s': expected %s, got %s", name, expected, actual), nil)
}

// MultiError accumulates independent failures during type inference (§4.5,
// §7): each sub-check runs to completion and its error, if any, is
// collected, so several diagnostics can surface from one expression tree.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) HasErrors() bool { return len(m.Errors) > 0 }

func (m *MultiError) Error() string {
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d errors:", len(m.Errors))
	for _, e := range m.Errors {
		msg += "\n  - " + e.Error()
	}
	return msg
}

// AsError returns nil if there were no errors, the single error
// unwrapped if there was exactly one, or the MultiError itself otherwise.
func (m *MultiError) AsError() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}

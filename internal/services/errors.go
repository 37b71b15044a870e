package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse         = errors.New("parse error")
	ErrBuild         = errors.New("build error")
	ErrMergeConflict = errors.New("merge conflict")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrStore         = errors.New("store error")
	ErrQueue         = errors.New("queue error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// ErrorKind names the class of a pipeline failure for logging and persistence.
type ErrorKind string

const (
	KindParse         ErrorKind = "parse"
	KindBuild         ErrorKind = "build"
	KindMergeConflict ErrorKind = "merge_conflict"
	KindTypeMismatch  ErrorKind = "type_mismatch"
	KindStore         ErrorKind = "store"
	KindQueue         ErrorKind = "queue"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindUnknown       ErrorKind = "unknown"
)

var kindMarkers = []struct {
	marker error
	kind   ErrorKind
}{
	{ErrParse, KindParse},
	{ErrBuild, KindBuild},
	{ErrMergeConflict, KindMergeConflict},
	{ErrTypeMismatch, KindTypeMismatch},
	{ErrStore, KindStore},
	{ErrQueue, KindQueue},
	{ErrValidation, KindValidation},
	{ErrConfiguration, KindConfiguration},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		return &wrappedError{detail: detail, operation: operation, message: message, cause: err}
	}
	return &wrappedError{marker: marker, detail: detail, operation: operation, message: message, cause: err}
}

type wrappedError struct {
	marker    error
	detail    string
	operation string
	message   string
	cause     error
}

func (e *wrappedError) Error() string {
	var b strings.Builder
	if e.marker != nil {
		b.WriteString(e.marker.Error())
		b.WriteString(": ")
	}
	b.WriteString(e.detail)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *wrappedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.marker != nil {
		errs = append(errs, e.marker)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// ErrorDetails is the structured view of a pipeline error.
type ErrorDetails struct {
	Kind      ErrorKind
	Operation string
	Message   string
	Cause     error
}

// Details extracts the kind, operation, and message carried by err. Errors that
// were not produced by Wrap still get a kind when they match a marker.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: Kind(err), Message: strings.TrimSpace(err.Error())}
	var wrapped *wrappedError
	if errors.As(err, &wrapped) {
		details.Operation = strings.TrimSpace(wrapped.operation)
		details.Cause = wrapped.cause
	}
	return details
}

// Kind returns the first marker kind matched by err.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, km := range kindMarkers {
		if errors.Is(err, km.marker) {
			return km.kind
		}
	}
	return KindUnknown
}

// Errorf formats an error tagged with marker without stage context.
func Errorf(marker error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", marker, fmt.Sprintf(format, args...))
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

// Package fault carries the error taxonomy shared across the gateway. Every
// failure a caller can observe resolves to an *Error with one of the kinds
// below, so transport failures, malformed payloads and caller mistakes stay
// distinguishable at the rendering boundary.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindNetwork             Kind = "network"
	KindConfiguration       Kind = "configuration"
	KindUnsupportedProvider Kind = "unsupported_provider"
	KindParse               Kind = "parse"
	KindStorage             Kind = "storage"
	KindNotFound            Kind = "not_found"
	KindValidation          Kind = "validation"
)

type Error struct {
	Kind Kind

	Message string

	// Reasons holds the individual human-readable findings of a validation
	// failure.
	Reasons []string

	Err error
}

func (e *Error) Error() string {
	if len(e.Reasons) > 0 {
		return e.Message + ": " + strings.Join(e.Reasons, "; ")
	}

	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func Network(format string, args ...any) *Error {
	return New(KindNetwork, format, args...)
}

func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

func UnsupportedProvider(name string) *Error {
	return New(KindUnsupportedProvider, "unsupported provider type %q", name)
}

func Parse(format string, args ...any) *Error {
	return New(KindParse, format, args...)
}

func Storage(err error, format string, args ...any) *Error {
	return Wrap(KindStorage, err, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Validation(message string, reasons ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Reasons: reasons,
	}
}

// KindOf classifies an arbitrary error, returning KindNetwork for anything
// outside the taxonomy so callers always see a typed failure.
func KindOf(err error) Kind {
	var fe *Error

	if errors.As(err, &fe) {
		return fe.Kind
	}

	return KindNetwork
}

func Is(err error, kind Kind) bool {
	var fe *Error

	if errors.As(err, &fe) {
		return fe.Kind == kind
	}

	return false
}

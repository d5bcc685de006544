package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку для транспортного слоя.
type Kind string

const (
	KindValidation Kind = "validation"
	KindProcessing Kind = "processing"
	KindNotFound   Kind = "not_found"
)

var (
	ErrMissingPayload    = errors.New("missing image payload")
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNotFound          = errors.New("not found")
)

// Error is the structured error carried from the CORE packages up to the handlers.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error { return wrap(KindValidation, op, err) }

func Processing(op string, err error) error { return wrap(KindProcessing, op, err) }

func NotFound(op string, err error) error { return wrap(KindNotFound, op, err) }

// Validationf builds a validation error from a format string.
func Validationf(op, format string, args ...any) error {
	return Validation(op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost *Error in the chain.
// Errors without a kind are treated as processing failures.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindProcessing
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the response code used by the handlers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

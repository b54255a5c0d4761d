package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// GenericMessage is what callers see for faults that are not classified.
const GenericMessage = "An unexpected error occurred"

type Kind int

const (
	KindInternal Kind = iota
	KindExtraction
	KindCredential
	KindValidation
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindExtraction:
		return "extraction"
	case KindCredential:
		return "credential"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

type AppError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Kind == KindExtraction && e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Extraction reports a transcript extraction failure. op names the failing phase.
func Extraction(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindExtraction,
		Code:    http.StatusBadGateway,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Unauthorized(op string, message string) *AppError {
	return &AppError{
		Kind:    KindCredential,
		Code:    http.StatusUnauthorized,
		Message: message,
		Op:      op,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Upstream wraps a completion API failure. The upstream message is kept as is
// and is what the caller receives.
func Upstream(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindUpstream,
		Code:    http.StatusInternalServerError,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Internal(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    http.StatusInternalServerError,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(err error) int {
	if appErr, ok := As(err); ok && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text safe to put in a response body. Internal
// errors never leak their detail.
func PublicMessage(err error) string {
	appErr, ok := As(err)
	if !ok || appErr.Kind == KindInternal || appErr.Message == "" {
		return GenericMessage
	}
	return appErr.Message
}

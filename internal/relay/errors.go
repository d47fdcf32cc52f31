package relay

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"movne-gateway/internal/types"
)

// Kind classifies a failed relay.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindUpstreamError       Kind = "UpstreamError"
	KindUnexpected          Kind = "UnexpectedError"
)

// Error is the client-facing failure of a relay. Values are built only inside
// this package and are not modified after construction.
type Error struct {
	Kind    Kind
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StatusCode maps the kind onto the HTTP status returned to the client.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) Response() types.ErrorResponse {
	return types.ErrorResponse{Error: e.Message, Kind: string(e.Kind), Details: e.Details}
}

// AsError returns err as a *Error, converting anything else to an
// UnexpectedError so nothing leaves the gateway outside the taxonomy.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return unexpectedError(err)
}

const (
	fieldMissing  = "missing"
	fieldOK       = "ok"
	fieldTooLarge = "too_large"
)

// validationError always carries a details object naming the offending fields.
func validationError(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: fields}
}

func unavailableError() *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: "backend chat service is unreachable"}
}

func upstreamError(status int, body any) *Error {
	return &Error{
		Kind:    KindUpstreamError,
		Message: fmt.Sprintf("backend chat service returned status %d", status),
		Details: body,
	}
}

func unexpectedError(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "unexpected error while processing the query", Details: err.Error()}
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/auth"
	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/token"
)

// GenericMessage is shown when the backend gave no usable message.
const GenericMessage = "An error occurred. Please try again."

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindNetwork
	KindUnauthorized
	KindSessionExpired
	KindForbidden
	KindNotFound
	KindServerError
	KindValidation
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindUnauthorized:
		return "unauthorized"
	case KindSessionExpired:
		return "session_expired"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindValidation:
		return "validation_error"
	case KindStorage:
		return "storage_error"
	}
	return "other"
}

// AppError is the single error type surfaced to screens and the CLI.
type AppError struct {
	Kind    ErrorKind
	Message string
	// StatusCode is 0 when the failure did not come from an HTTP response.
	StatusCode int
	// Fields carries the backend's field-level validation messages verbatim.
	Fields map[string][]string
	Err    error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether offering the user a retry makes sense.
func (e *AppError) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServerError
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// ToAppError maps any failure from the lower layers onto an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return fromHTTPError(httpErr, err)
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &AppError{Kind: KindNetwork, Message: GenericMessage, Err: err}
	case errors.Is(err, token.ErrStorage):
		return &AppError{Kind: KindStorage, Message: "Session storage is unavailable.", Err: err}
	case errors.Is(err, auth.NoRefreshTokenErr), errors.Is(err, auth.RefreshRejectedErr):
		return sessionExpired(err)
	case errors.Is(err, errors.ErrInvalidPageRequest), errors.Is(err, errors.ErrMissingID):
		return &AppError{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	return &AppError{Kind: KindOther, Message: GenericMessage, Err: err}
}

func sessionExpired(err error) *AppError {
	return &AppError{Kind: KindSessionExpired, Message: "Your session has expired. Please log in again.", Err: err}
}

// fromHTTPError classifies httpErr and keeps cause, which wraps it, as the
// underlying error.
func fromHTTPError(httpErr *apiclient.HTTPError, cause error) *AppError {
	appErr := &AppError{
		Kind:       KindOther,
		Message:    httpErr.BodyMessage,
		StatusCode: httpErr.StatusCode,
		Fields:     httpErr.Fields,
		Err:        cause,
	}
	if appErr.Message == "" {
		appErr.Message = GenericMessage
	}

	switch httpErr.Kind {
	case apiclient.KindNetwork:
		appErr.Kind = KindNetwork
	case apiclient.KindUnauthorized:
		appErr.Kind = KindUnauthorized
	case apiclient.KindForbidden:
		appErr.Kind = KindForbidden
	case apiclient.KindNotFound:
		appErr.Kind = KindNotFound
	case apiclient.KindServerError:
		appErr.Kind = KindServerError
	default:
		if isValidationStatus(httpErr.StatusCode) || len(httpErr.Fields) > 0 {
			appErr.Kind = KindValidation
		}
	}
	return appErr
}

func isValidationStatus(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

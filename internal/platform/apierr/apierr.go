package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes surfaced to callers in the error envelope.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeValidation           = "validation_error"
	CodeNotFound             = "not_found"
	CodeAlreadyPublished     = "already_published"
	CodeSlugGenerationFailed = "slug_generation_failed"
	CodeAuthorization        = "authorization_error"
	CodeStorageUnavailable   = "storage_unavailable"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, CodeValidation, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Authorization(err error) *Error {
	return New(http.StatusBadGateway, CodeAuthorization, err)
}

func StorageUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, CodeStorageUnavailable, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

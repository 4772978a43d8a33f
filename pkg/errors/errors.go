package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeFailedPrecond   Code = "FAILED_PRECONDITION"
	CodeFileNotAccepted Code = "FILE_NOT_ACCEPTED"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus int
	// WireCode is the numeric code the public envelope carries. The values
	// match the legacy employee API's error catalogue.
	WireCode       int
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		WireCode:       120,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:     http.StatusUnauthorized,
		WireCode:       215,
		PublicMessage:  "bad authentication data",
		DetailsAllowed: false,
	},
	CodeForbidden: {
		HTTPStatus:     http.StatusForbidden,
		WireCode:       305,
		PublicMessage:  "you do not have permission to access this page",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		WireCode:       8,
		PublicMessage:  "no data available",
		DetailsAllowed: false,
	},
	CodeConflict: {
		HTTPStatus:     http.StatusConflict,
		WireCode:       121,
		PublicMessage:  "value already in use",
		DetailsAllowed: true,
	},
	CodeFailedPrecond: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		WireCode:       122,
		PublicMessage:  "precondition failed",
		DetailsAllowed: true,
	},
	CodeFileNotAccepted: {
		HTTPStatus:     http.StatusBadRequest,
		WireCode:       325,
		PublicMessage:  "type of file is not allowed",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		WireCode:       429,
		PublicMessage:  "rate limit exceeded",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		WireCode:       131,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		WireCode:       131,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	fields  map[string][]string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// WithFieldMessages attaches field-keyed messages so validation and conflict
// failures can render the 120-style envelope.
func (e *Error) WithFieldMessages(fields map[string][]string) *Error {
	if e == nil {
		return nil
	}
	e.fields = fields
	return e
}

// WithField is shorthand for a single field carrying a single message.
func (e *Error) WithField(field, message string) *Error {
	return e.WithFieldMessages(map[string][]string{field: {message}})
}

// FieldMessages returns the field-keyed messages, or nil when none were set.
func (e *Error) FieldMessages() map[string][]string {
	if e == nil {
		return nil
	}
	return e.fields
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

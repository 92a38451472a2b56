// Package apperr holds the sentinel errors and the domain error codes
// surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrIsDirectory   = errors.New("is a directory")
)

// Code is a domain error code. The leading three digits are the HTTP status.
type Code int

const (
	TextOrByteContentEncodingRequired    Code = 40010
	ContentTypeSpecificationRequired     Code = 40011
	InvalidFilterQuery                   Code = 40012
	MissingHeadingHeader                 Code = 40050
	InvalidHeadingHeader                 Code = 40051
	InvalidContentInsertionPositionValue Code = 40052
	PeriodIsNotEnabled                   Code = 40060
	ApiKeyAuthorizationRequired          Code = 40101
	PeriodDoesNotExist                   Code = 40460
	PeriodicNoteDoesNotExist             Code = 40461
	RequestMethodValidOnlyForFiles       Code = 40510
	NoFindUidField                       Code = 40520
	InvalidContentForContentType         Code = 41500
	UncategorizedError                   Code = 50000
	OperationTimedOut                    Code = 50530
)

var messages = map[Code]string{
	TextOrByteContentEncodingRequired:    "Incoming content must be text data and have an appropriate text/* Content-type header set (e.g. text/markdown).",
	ContentTypeSpecificationRequired:     "Incoming content did not specify a content-type header for which a handler is registered.",
	InvalidFilterQuery:                   "The query you provided could not be processed.",
	MissingHeadingHeader:                 "'Heading' header is required for identifying where to insert content.",
	InvalidHeadingHeader:                 "No heading found matching path specified in 'Heading' header.",
	InvalidContentInsertionPositionValue: "'Content-Insertion-Position' header must be 'beginning' or 'end'.",
	PeriodIsNotEnabled:                   "Specified period is not enabled.",
	ApiKeyAuthorizationRequired:          "Authorization required. Find your API Key in the settings.",
	PeriodDoesNotExist:                   "Specified period does not exist.",
	PeriodicNoteDoesNotExist:             "Periodic note does not exist for the specified period.",
	RequestMethodValidOnlyForFiles:       "Request method is valid only for file paths, not directories.",
	NoFindUidField:                       "Document is missing the UID field.",
	InvalidContentForContentType:         "Content could not be parsed for the specified content type.",
	UncategorizedError:                   "An unexpected error occurred.",
	OperationTimedOut:                    "The operation timed out waiting for the operator.",
}

// Message returns the fixed human text for c, or "" for unknown codes.
func (c Code) Message() string {
	return messages[c]
}

// Status returns the HTTP status encoded in c.
func (c Code) Status() int {
	return int(c) / 100
}

// Error is a failure that maps onto a canned API response.
// Either Code or Status is set; Detail is appended to the message.
type Error struct {
	Code   Code
	Status int
	Detail string
	Err    error
}

// New returns an Error for a domain code.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Wrap returns an Error for code that keeps err as its cause.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Detail: err.Error(), Err: err}
}

// WithStatus returns an Error carrying a bare HTTP status.
func WithStatus(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

func (e *Error) Error() string {
	switch {
	case e.Code != 0 && e.Detail != "":
		return fmt.Sprintf("%d: %s", e.Code, e.Detail)
	case e.Code != 0:
		return fmt.Sprintf("%d: %s", e.Code, e.Code.Message())
	default:
		return fmt.Sprintf("status %d: %s", e.Status, e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsCode reports whether err is an *Error carrying code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

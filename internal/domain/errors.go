package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an article id does not exist.
var ErrNotFound = errors.New("not found")

type FetchErrorKind string

const (
	FetchTimeout           FetchErrorKind = "timeout"
	FetchConnectionRefused FetchErrorKind = "connection_refused"
	FetchHTTPStatus        FetchErrorKind = "http_status"
	FetchMalformed         FetchErrorKind = "malformed"
)

type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether another attempt may succeed: timeouts, refused
// connections, 5xx and 429.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case FetchTimeout, FetchConnectionRefused:
		return true
	case FetchHTTPStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	}
	return false
}

type ParseErrorKind string

const ParseInvalidFormat ParseErrorKind = "invalid_format"

type ParseError struct {
	Kind     ParseErrorKind
	SourceID string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse feed %s: %s: %v", e.SourceID, e.Kind, e.Err)
	}
	return fmt.Sprintf("parse feed %s: %s", e.SourceID, e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

type QueryErrorKind string

const QueryInvalidFilter QueryErrorKind = "invalid_filter"

type QueryError struct {
	Kind    QueryErrorKind
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// InvalidFilter builds a QueryError of kind InvalidFilter.
func InvalidFilter(format string, args ...any) *QueryError {
	return &QueryError{Kind: QueryInvalidFilter, Message: fmt.Sprintf(format, args...)}
}

type StoreErrorKind string

const (
	StoreConstraintViolation StoreErrorKind = "constraint_violation"
	StoreIOFailure           StoreErrorKind = "io_failure"
)

type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsTransientStoreError reports whether err is a store I/O failure worth retrying.
func IsTransientStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == StoreIOFailure
}

package isochrone

import (
	"errors"
	"fmt"
)

// Error kinds, used as metric labels
const (
	KindFetch       = "fetch"
	KindContentType = "content_type"
	KindParse       = "parse"
)

// FetchError is returned when the request fails or the response status is not 2xx.
// StatusCode is 0 when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind returns the error kind
func (e *FetchError) Kind() string { return KindFetch }

// ContentTypeError is returned when the response is not declared as JSON
type ContentTypeError struct {
	URL         string
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("fetch %s: expected JSON but got content type %q", e.URL, e.ContentType)
}

// Kind returns the error kind
func (e *ContentTypeError) Kind() string { return KindContentType }

// ParseError is returned when the response body is not valid JSON
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind returns the error kind
func (e *ParseError) Kind() string { return KindParse }

// ErrorKind returns the kind of a loader error, or "other" for anything else
func ErrorKind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "other"
}

package domain

import "fmt"

// FetchError reports a transport failure or a non-success HTTP status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a document that could not be turned into a tree.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s stage: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldWarning describes one malformed or unrecognized block or row.
// Warnings never abort an extraction.
type FieldWarning struct {
	Section string
	Item    string
	Reason  string
}

func (w FieldWarning) String() string {
	if w.Item == "" {
		return fmt.Sprintf("%s: %s", w.Section, w.Reason)
	}
	return fmt.Sprintf("%s %q: %s", w.Section, w.Item, w.Reason)
}

// DispatchError reports a failure to produce the artifact for a region.
type DispatchError struct {
	Region string
	Stage  string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s at %s: %v", e.Region, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

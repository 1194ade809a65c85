package ingest

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures by their blast radius: record-level
// kinds skip one record, file-level kinds skip one file, and the run always
// continues to the next file.
type ErrorKind int

const (
	KindUnknown          ErrorKind = iota
	KindInvalidGeometry            // out-of-bounds or unparseable coordinate; record skipped
	KindMalformedRecord            // missing or unparseable required field; record skipped
	KindFileUnreadable             // missing file or broken container; file skipped
	KindStoreUnavailable           // batch write failed; file's batch fails whole
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidGeometry:
		return "invalid_geometry"
	case KindMalformedRecord:
		return "malformed_record"
	case KindFileUnreadable:
		return "file_unreadable"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Error carries enough context (source, natural key, offending detail) for a
// rejected record or file to be found and manually re-ingested.
type Error struct {
	Kind   ErrorKind
	Source string // carrier or coverage category
	Key    string // natural key when known, e.g. a site id or file path
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [source=%s key=%s]", e.Kind, e.Source, e.Key)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a pipeline error with a formatted detail message.
func Errf(kind ErrorKind, source, key, format string, a ...any) *Error {
	return &Error{Kind: kind, Source: source, Key: key, Detail: fmt.Sprintf(format, a...)}
}

// Wrap builds a pipeline error around an underlying cause.
func Wrap(kind ErrorKind, source, key string, err error) *Error {
	return &Error{Kind: kind, Source: source, Key: key, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

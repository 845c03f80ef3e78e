package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource where absence cannot be expressed as nil.
	ErrNotFound = errors.New("not found")
	// ErrTransport signals a non-404 error status returned by the knowledge graph service.
	ErrTransport = errors.New("transport error")
	// ErrRevisionConflict signals an optimistic locking conflict (HTTP 409).
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrPublished signals an attempt to modify an already published schema or context.
	ErrPublished = errors.New("already published")
	// ErrUnresolved signals a symbolic template reference that matched no instance.
	ErrUnresolved = errors.New("unresolved reference")
	// ErrInvalidArgument signals a caller contract violation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedReference signals a URL that does not belong to the expected resource type.
	ErrMalformedReference = errors.New("malformed reference")
	// ErrNotCreated signals a create call that returned no document.
	ErrNotCreated = errors.New("entity was not created")
	// ErrUnsupportedVersion signals a knowledge graph service the client does not support.
	ErrUnsupportedVersion = errors.New("unsupported service version")
)

// TransportError carries the failed HTTP exchange.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Reason     string
	Body       string
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Reason)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap exposes ErrTransport and, for HTTP 409, ErrRevisionConflict.
func (e *TransportError) Unwrap() []error {
	if e.StatusCode == 409 {
		return []error{ErrTransport, ErrRevisionConflict}
	}
	return []error{ErrTransport}
}

// ServerError reports whether the service failed on its side (status >= 500).
func (e *TransportError) ServerError() bool { return e.StatusCode >= 500 }

// ConflictError is returned when a published schema or context would be updated.
type ConflictError struct {
	Kind string
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("can not update the already published %s %s", e.Kind, e.Name)
}

func (e *ConflictError) Unwrap() error { return ErrPublished }

// ResolveError is returned when a template reference matched zero instances.
type ResolveError struct {
	Path string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("no entities found for %s", e.Path)
}

func (e *ResolveError) Unwrap() error { return ErrUnresolved }

// MalformedReferenceError is returned when a URL does not contain the expected root path.
type MalformedReferenceError struct {
	URL      string
	RootPath string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("%q is not applicable to %s", e.URL, e.RootPath)
}

func (e *MalformedReferenceError) Unwrap() []error {
	return []error{ErrMalformedReference, ErrInvalidArgument}
}

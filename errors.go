package kgclient

import "github.com/kailas-cloud/kgclient/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrTransport          = domain.ErrTransport
	ErrRevisionConflict   = domain.ErrRevisionConflict
	ErrPublished          = domain.ErrPublished
	ErrUnresolved         = domain.ErrUnresolved
	ErrInvalidArgument    = domain.ErrInvalidArgument
	ErrMalformedReference = domain.ErrMalformedReference
	ErrNotCreated         = domain.ErrNotCreated
	ErrUnsupportedVersion = domain.ErrUnsupportedVersion
)

// Typed errors re-exported from the domain layer. Use errors.As() to inspect them.
type (
	TransportError          = domain.TransportError
	ConflictError           = domain.ConflictError
	ResolveError            = domain.ResolveError
	MalformedReferenceError = domain.MalformedReferenceError
)

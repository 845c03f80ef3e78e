// Package jsonld rewrites compact JSON-LD documents into their fully qualified form.
package jsonld

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// Qualifier expands a document and compacts it against an empty context, so every prefixed
// key becomes an absolute IRI.
type Qualifier struct {
	proc *ld.JsonLdProcessor
	opts *ld.JsonLdOptions
}

// New creates a Qualifier. A nil loader fetches remote contexts over HTTP.
func New(loader ld.DocumentLoader) *Qualifier {
	opts := ld.NewJsonLdOptions("")
	if loader != nil {
		opts.DocumentLoader = loader
	}
	return &Qualifier{proc: ld.NewJsonLdProcessor(), opts: opts}
}

// FullyQualify returns the fully qualified form of doc. doc is not modified.
func (q *Qualifier) FullyQualify(doc map[string]any) (map[string]any, error) {
	expanded, err := q.proc.Expand(doc, q.opts)
	if err != nil {
		return nil, fmt.Errorf("expand json-ld: %w", err)
	}
	compacted, err := q.proc.Compact(expanded, map[string]any{}, q.opts)
	if err != nil {
		return nil, fmt.Errorf("compact json-ld: %w", err)
	}
	return compacted, nil
}

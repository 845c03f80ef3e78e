// Package filter builds the JSON filter expressions understood by the knowledge graph search API.
package filter

import (
	"encoding/json"
	"fmt"
)

// Expression is a filter node: a comparison on a field path or a logical group of expressions.
type Expression struct {
	Op    string `json:"op"`
	Path  string `json:"path,omitempty"`
	Value any    `json:"value"`
}

// Eq matches resources whose field at path equals value.
// Strings are rendered quoted, numbers and booleans raw.
func Eq(path string, value any) Expression {
	return Expression{Op: "eq", Path: path, Value: value}
}

// Ne matches resources whose field at path differs from value.
func Ne(path string, value any) Expression {
	return Expression{Op: "ne", Path: path, Value: value}
}

// And matches when all expressions match.
func And(exprs ...Expression) Expression {
	return Expression{Op: "and", Value: exprs}
}

// Or matches when any expression matches.
func Or(exprs ...Expression) Expression {
	return Expression{Op: "or", Value: exprs}
}

// String renders the expression as compact JSON.
func (e Expression) String() string {
	s, err := e.Encode()
	if err != nil {
		return ""
	}
	return s
}

// Encode renders the expression as compact JSON.
func (e Expression) Encode() (string, error) {
	if e.Op == "" {
		return "", fmt.Errorf("filter op is required")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	return string(b), nil
}

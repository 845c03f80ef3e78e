// Package entity holds the value objects addressing knowledge graph resources.
package entity

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Well-known document fields.
const (
	RevisionKey     = "nxv:rev"
	PublishedKey    = "nxv:published"
	DeprecatedKey   = "nxv:deprecated"
	IdentifierField = "http://schema.org/identifier"
	ChecksumField   = "http://hbp.eu/internal#hashcode"
)

var (
	revisionKeys   = []string{RevisionKey, "rev"}
	publishedKeys  = []string{PublishedKey, "published"}
	deprecatedKeys = []string{DeprecatedKey, "deprecated"}
)

// Entity is an addressable graph resource: identifier, derived path and raw JSON-LD document.
// Path is always rootPath + "/" + id; use SetID to change the identifier.
type Entity struct {
	kind Kind
	id   string
	path string
	data map[string]any
}

// New builds an entity of the given kind.
func New(kind Kind, id string, data map[string]any) *Entity {
	e := &Entity{kind: kind, data: data}
	e.SetID(id)
	return e
}

// Kind returns the resource kind.
func (e *Entity) Kind() Kind { return e.kind }

// ID returns the identifier (path segments below the root path).
func (e *Entity) ID() string { return e.id }

// Path returns rootPath + "/" + id.
func (e *Entity) Path() string { return e.path }

// RootPath returns the collection root of the entity kind.
func (e *Entity) RootPath() string { return e.kind.RootPath() }

// SetID replaces the identifier and recomputes the path.
func (e *Entity) SetID(id string) {
	e.id = id
	e.path = e.kind.RootPath() + "/" + id
}

// Data returns the raw document. Never nil.
func (e *Entity) Data() map[string]any {
	if e.data == nil {
		e.data = map[string]any{}
	}
	return e.data
}

// SetData replaces the document.
func (e *Entity) SetData(data map[string]any) { e.data = data }

// Revision returns the revision stored in the document; false means not yet persisted.
func (e *Entity) Revision() (int, bool) {
	return RevisionOf(e.data)
}

// Published reports the publish flag. Absent means false.
func (e *Entity) Published() bool {
	v, _ := lookupBool(e.data, publishedKeys)
	return v
}

// Deprecated reports the deprecation flag. Absent or explicit false means not deprecated.
func (e *Entity) Deprecated() bool {
	v, _ := lookupBool(e.data, deprecatedKeys)
	return v
}

// Type returns the @type value, or nil.
func (e *Entity) Type() any { return e.data["@type"] }

// Identifier returns the http://schema.org/identifier value, unwrapping lists to their first element.
func (e *Entity) Identifier() (any, bool) { return IdentifierOf(e.data) }

// Organization returns the first identifier segment.
func (e *Entity) Organization() string { return segment(e.id, 0) }

// DomainName returns the second identifier segment.
func (e *Entity) DomainName() string { return segment(e.id, 1) }

// SchemaName returns the third identifier segment.
func (e *Entity) SchemaName() string { return segment(e.id, 2) }

// Version returns the fourth identifier segment.
func (e *Entity) Version() string { return segment(e.id, 3) }

// UUID returns the fifth identifier segment (instances only).
func (e *Entity) UUID() string { return segment(e.id, 4) }

// Checksum hashes the current document.
func (e *Entity) Checksum() string { return ChecksumOf(e.data) }

// JSON renders the document indented.
func (e *Entity) JSON() (string, error) {
	b, err := json.MarshalIndent(e.Data(), "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal %s %s: %w", e.kind, e.id, err)
	}
	return string(b), nil
}

func (e *Entity) String() string {
	rev := "none"
	if r, ok := e.Revision(); ok {
		rev = strconv.Itoa(r)
	}
	return fmt.Sprintf("%s: id=%s, path=%s, revision=%s", e.kind, e.id, e.path, rev)
}

// RevisionOf extracts the revision from a raw document.
func RevisionOf(data map[string]any) (int, bool) {
	for _, k := range revisionKeys {
		if v, ok := data[k]; ok {
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// IdentifierOf extracts http://schema.org/identifier from a raw document.
func IdentifierOf(data map[string]any) (any, bool) {
	v, ok := data[IdentifierField]
	if !ok {
		return nil, false
	}
	if list, isList := v.([]any); isList {
		if len(list) == 0 {
			return nil, false
		}
		return list[0], true
	}
	return v, true
}

// ChecksumOf returns a stable content hash of a document.
// encoding/json sorts map keys, so equal documents hash equally.
func ChecksumOf(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	sum := xxh3.Hash128(b).Bytes()
	return hex.EncodeToString(sum[:])
}

func lookupBool(data map[string]any, keys []string) (bool, bool) {
	for _, k := range keys {
		v, ok := data[k]
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(b)
			if err == nil {
				return parsed, true
			}
		}
	}
	return false, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func segment(id string, idx int) string {
	parts := strings.Split(id, "/")
	if idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

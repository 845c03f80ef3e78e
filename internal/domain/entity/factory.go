package entity

import (
	"strings"

	"github.com/kailas-cloud/kgclient/internal/domain"
)

// DomainID builds "org/domain".
func DomainID(organization, dom string) string {
	return organization + "/" + dom
}

// VersionedID builds "org/domain/name/version", shared by schemas, contexts and instance collections.
func VersionedID(organization, dom, name, version string) string {
	return strings.Join([]string{organization, dom, name, version}, "/")
}

// NewOrganization prepares an organization that does not exist yet.
func NewOrganization(name, description string) *Entity {
	return New(KindOrganization, name, map[string]any{
		"@context": map[string]any{
			"schema": "http://schema.org/",
		},
		"schema:name":        name,
		"schema:description": description,
	})
}

// NewDomain prepares a domain that does not exist yet.
func NewDomain(organization, dom, description string) *Entity {
	return New(KindDomain, DomainID(organization, dom), map[string]any{
		"description": description,
	})
}

// NewSchema prepares a schema that does not exist yet.
func NewSchema(organization, dom, name, version string, content map[string]any) *Entity {
	return New(KindSchema, VersionedID(organization, dom, name, version), content)
}

// NewContext prepares a context that does not exist yet.
func NewContext(organization, dom, name, version string, content map[string]any) *Entity {
	return New(KindContext, VersionedID(organization, dom, name, version), content)
}

// NewInstance prepares an instance inside its schema collection.
// The server assigns the trailing uuid on create.
func NewInstance(organization, dom, schema, version string, content map[string]any) *Entity {
	return New(KindInstance, VersionedID(organization, dom, schema, version), content)
}

// ExtractIDFromURL returns the part of url between rootPath+"/" and the first '?', '#' or the end,
// without a single trailing slash.
func ExtractIDFromURL(url, rootPath string) (string, error) {
	marker := rootPath + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", &domain.MalformedReferenceError{URL: url, RootPath: rootPath}
	}
	rest := url[idx+len(marker):]
	if end := strings.IndexAny(rest, "?#"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSuffix(rest, "/"), nil
}

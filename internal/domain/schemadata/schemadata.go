// Package schemadata derives schema, context and instance collection coordinates from template file paths.
package schemadata

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kailas-cloud/kgclient/internal/domain"
)

var versionPattern = regexp.MustCompile(`v\d*\.\d*\.\d*`)

// Data holds the coordinates and parsed content of a schema or context template.
type Data struct {
	Organization string
	Domain       string
	Name         string
	Version      string
	Content      map[string]any
	// Revision is filled in after the upload; zero means not persisted.
	Revision int
}

// New normalizes every coordinate by stripping '/' and '#'.
func New(organization, dom, name, version string, content map[string]any) *Data {
	return &Data{
		Organization: Normalize(organization),
		Domain:       Normalize(dom),
		Name:         Normalize(name),
		Version:      Normalize(version),
		Content:      content,
	}
}

// ByFilepath reads .../{organization}/{domain}/{name}/{version}/file.
// When the file name carries a version token (v1.0.0) the version directory is omitted:
// .../{organization}/{domain}/{name}/file-v1.0.0.json.
func ByFilepath(path string, content map[string]any) (*Data, error) {
	dir := filepath.Dir(filepath.Clean(path))
	parts := splitDir(dir)

	version := versionPattern.FindString(filepath.Base(path))
	if version == "" {
		if len(parts) == 0 {
			return nil, fmt.Errorf("%s: missing version directory: %w", path, domain.ErrInvalidArgument)
		}
		version = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 3 {
		return nil, fmt.Errorf("%s: expected .../organization/domain/name: %w", path, domain.ErrInvalidArgument)
	}
	n := len(parts)
	return New(parts[n-3], parts[n-2], parts[n-1], version, content), nil
}

// Normalize strips '/' and '#' from an identifier component.
func Normalize(s string) string {
	return strings.NewReplacer("/", "", "#", "").Replace(s)
}

// SchemaID returns organization/domain/name/version.
func (d *Data) SchemaID() string {
	return strings.Join([]string{d.Organization, d.Domain, d.Name, d.Version}, "/")
}

func splitDir(dir string) []string {
	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(dir), "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}

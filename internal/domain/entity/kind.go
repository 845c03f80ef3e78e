package entity

// Kind identifies the resource collection an entity belongs to.
type Kind int

// Supported resource kinds.
const (
	KindOrganization Kind = iota
	KindDomain
	KindSchema
	KindContext
	KindInstance
)

var rootPaths = map[Kind]string{
	KindOrganization: "/organizations",
	KindDomain:       "/domains",
	KindSchema:       "/schemas",
	KindContext:      "/contexts",
	KindInstance:     "/data",
}

var kindNames = map[Kind]string{
	KindOrganization: "organization",
	KindDomain:       "domain",
	KindSchema:       "schema",
	KindContext:      "context",
	KindInstance:     "instance",
}

// RootPath returns the collection root, e.g. "/schemas".
func (k Kind) RootPath() string { return rootPaths[k] }

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Publishable reports whether the kind supports the publish flag.
func (k Kind) Publishable() bool { return k == KindSchema || k == KindContext }

// Segments is the number of identifier path segments addressing a single resource.
func (k Kind) Segments() int {
	switch k {
	case KindOrganization:
		return 1
	case KindDomain:
		return 2
	case KindSchema, KindContext:
		return 4
	case KindInstance:
		return 5
	default:
		return 0
	}
}

// KindForRootPath maps a collection root back to its kind.
func KindForRootPath(root string) (Kind, bool) {
	for k, p := range rootPaths {
		if p == root {
			return k, true
		}
	}
	return 0, false
}

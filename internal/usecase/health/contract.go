package health

import "context"

// ServiceDescriber fetches the knowledge graph service description.
type ServiceDescriber interface {
	GetURL(ctx context.Context, rawURL string) (map[string]any, error)
	Endpoint() string
}

// CachePinger checks shared cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Package placeholder rewrites upload templates: symbolic instance references are resolved to graph ids
// and endpoint tokens are substituted with the configured namespace.
//
// References are rewritten on the raw template text, before it is parsed as JSON, because a quoted
// reference ("{{resolve ...}}") is replaced by a JSON object.
package placeholder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/filter"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
)

const (
	resolveMarker   = "{{resolve "
	resolveIDMarker = "{{resolve_id "
)

var byIdentifierPattern = regexp.MustCompile(`"\{\{resolve_by_identifier ([^\s"]+) ([^"]*?)\}\}"`)

// resolver is the consumer interface over the identifier resolution cache (ISP).
type resolver interface {
	Resolve(ctx context.Context, match string) (string, error)
}

// Config carries the values substituted for endpoint tokens.
type Config struct {
	Namespace string
	Prefix    string
	Endpoint  string
}

// Engine renders upload templates.
type Engine struct {
	resolver resolver
	cfg      Config
	logger   *zap.Logger
}

// New creates an Engine.
func New(r resolver, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{resolver: r, cfg: cfg, logger: logger}
}

// Render resolves references, then fills endpoint tokens.
func (e *Engine) Render(ctx context.Context, tmpl string, failIfMissing bool) (string, error) {
	out, err := e.ResolveEntities(ctx, tmpl, failIfMissing)
	if err != nil {
		return "", err
	}
	return e.FillPlaceholders(out), nil
}

// ResolveEntities expands resolve_by_identifier references and replaces every resolve and
// resolve_id reference with the id it points to. With failIfMissing unset an unresolved
// reference becomes an empty id; other lookup failures always abort.
func (e *Engine) ResolveEntities(ctx context.Context, tmpl string, failIfMissing bool) (string, error) {
	tmpl, err := expandByIdentifier(tmpl)
	if err != nil {
		return "", err
	}

	for _, match := range scan(tmpl, resolveMarker) {
		id, err := e.lookup(ctx, match, failIfMissing)
		if err != nil {
			return "", err
		}
		ref := fmt.Sprintf(`{ "@id": "%s"}`, id)
		tmpl = strings.ReplaceAll(tmpl, `"`+resolveMarker+match+`}}"`, ref)
		tmpl = strings.ReplaceAll(tmpl, resolveMarker+match+"}}", ref)
	}

	for _, match := range scan(tmpl, resolveIDMarker) {
		id, err := e.lookup(ctx, match, failIfMissing)
		if err != nil {
			return "", err
		}
		tmpl = strings.ReplaceAll(tmpl, resolveIDMarker+match+"}}", id)
	}
	return tmpl, nil
}

// FillPlaceholders substitutes {{base}}, {{prefix}} and {{endpoint}}. The legacy
// "{{endpoint}}:{{port}}/{{prefix}}" form collapses to {{base}} and a dangling ":{{port}}" is
// dropped, since the configured namespace already carries the port. Unknown tags are kept.
func (e *Engine) FillPlaceholders(tmpl string) string {
	tmpl = strings.ReplaceAll(tmpl, "{{endpoint}}:{{port}}/{{prefix}}", "{{base}}")
	tmpl = strings.ReplaceAll(tmpl, ":{{port}}", "")

	values := map[string]string{
		"base":     strings.TrimSuffix(e.cfg.Namespace, "/") + "/" + e.cfg.Prefix,
		"prefix":   e.cfg.Prefix,
		"endpoint": e.cfg.Endpoint,
	}
	return fasttemplate.ExecuteFuncString(tmpl, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		if v, ok := values[strings.TrimSpace(tag)]; ok {
			return w.Write([]byte(v))
		}
		return w.Write([]byte("{{" + tag + "}}"))
	})
}

func (e *Engine) lookup(ctx context.Context, match string, failIfMissing bool) (string, error) {
	id, err := e.resolver.Resolve(ctx, match)
	if err == nil {
		return id, nil
	}
	if !failIfMissing && errors.Is(err, domain.ErrUnresolved) {
		e.logger.Error("No entities found", zap.String("match", match))
		return "", nil
	}
	return "", err
}

// expandByIdentifier rewrites "{{resolve_by_identifier path id}}" into a resolve reference
// filtered on http://schema.org/identifier. The filter is percent-encoded so identifiers holding
// '&', '+' or quotes survive both the JSON string and the query string.
func expandByIdentifier(tmpl string) (string, error) {
	var firstErr error
	out := byIdentifierPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := byIdentifierPattern.FindStringSubmatch(m)
		path := strings.Trim(sub[1], "/")
		identifier := strings.Trim(sub[2], "/")
		encoded, err := filter.Eq(entity.IdentifierField, identifier).Encode()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("expand reference %s: %w", m, err)
			}
			return m
		}
		return `"` + resolveMarker + "/" + path + "?" + request.ParamFilter + "=" + request.EscapeValue(encoded) + `}}"`
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// scan returns the distinct references following marker, in order of appearance. A reference
// ends at the first "}}" outside braces it opened, so filter JSON may end right before the
// closing tag ("...\"bar\"}}}").
func scan(tmpl, marker string) []string {
	var out []string
	seen := map[string]bool{}
	rest := tmpl
	for {
		i := strings.Index(rest, marker)
		if i < 0 {
			return out
		}
		rest = rest[i+len(marker):]
		end := closingTag(rest)
		if end < 0 {
			return out
		}
		match := rest[:end]
		rest = rest[end+2:]
		if match == "" || seen[match] {
			continue
		}
		seen[match] = true
		out = append(out, match)
	}
}

func closingTag(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == '}' {
					return i
				}
				continue
			}
			depth--
		}
	}
	return -1
}

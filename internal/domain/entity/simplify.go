package entity

import (
	"sort"
	"strings"
)

// SimplifiedData returns the document without JSON-LD keywords and with namespace prefixes stripped.
func (e *Entity) SimplifiedData() map[string]any {
	return simplify(e.Data())
}

// Get returns the value stored under key. With simplified set, nested maps are simplified
// and a prefixed key ("schema:name") is accepted for a bare key ("name").
func (e *Entity) Get(key string, simplified bool) (any, bool) {
	data := e.Data()
	if v, ok := data[key]; ok {
		if simplified {
			return simplifyValue(v), true
		}
		return v, true
	}
	if !simplified {
		return nil, false
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(k, ":"+key) {
			return simplifyValue(data[k]), true
		}
	}
	return nil, false
}

func simplifyValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return simplify(m)
	}
	return v
}

func simplify(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if strings.HasPrefix(k, "@") {
			continue
		}
		out[stripPrefix(k)] = simplifyValue(v)
	}
	return out
}

func stripPrefix(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}

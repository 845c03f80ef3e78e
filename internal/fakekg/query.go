package fakekg

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// expression mirrors the filter JSON accepted by the listing endpoints.
type expression struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

func parseFilter(raw string) (*expression, error) {
	var e expression
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("%w: filter: %v", errBadRequest, err)
	}
	return &e, nil
}

func (e *expression) match(doc map[string]any) (bool, error) {
	switch e.Op {
	case "eq", "ne":
		var want any
		if err := json.Unmarshal(e.Value, &want); err != nil {
			return false, fmt.Errorf("%w: filter value: %v", errBadRequest, err)
		}
		eq := valueMatches(doc[e.Path], want)
		if e.Op == "ne" {
			return !eq, nil
		}
		return eq, nil
	case "and", "or":
		var children []expression
		if err := json.Unmarshal(e.Value, &children); err != nil {
			return false, fmt.Errorf("%w: filter %s: %v", errBadRequest, e.Op, err)
		}
		for i := range children {
			ok, err := children[i].match(doc)
			if err != nil {
				return false, err
			}
			if e.Op == "or" && ok {
				return true, nil
			}
			if e.Op == "and" && !ok {
				return false, nil
			}
		}
		return e.Op == "and", nil
	default:
		return false, fmt.Errorf("%w: unsupported filter op %q", errBadRequest, e.Op)
	}
}

// valueMatches compares a stored value with a filter value; lists match on any element,
// and {"@id": ...} references match their id.
func valueMatches(stored, want any) bool {
	switch s := stored.(type) {
	case []any:
		for _, item := range s {
			if valueMatches(item, want) {
				return true
			}
		}
		return false
	case map[string]any:
		if id, ok := s["@id"]; ok && reflect.DeepEqual(id, want) {
			return true
		}
	}
	return reflect.DeepEqual(stored, want)
}

func fullTextMatches(doc map[string]any, q string) bool {
	b, err := json.Marshal(doc)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(b)), strings.ToLower(q))
}

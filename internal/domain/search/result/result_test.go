package result

import (
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/kgclient/internal/domain/entity"
)

const envelope = `{
  "total": 3,
  "results": [
    {
      "resultId": "http://host/v0/data/org/dom/name/v1/uuid-1",
      "score": 1.5,
      "source": {
        "@id": "http://host/v0/data/org/dom/name/v1/uuid-1",
        "links": [
          {"rel": "self", "href": "http://host/v0/data/org/dom/name/v1/uuid-1"},
          {"rel": "schema", "href": "http://host/v0/schemas/org/dom/name/v1"}
        ]
      }
    },
    {
      "resultId": "http://host/v0/data/org/dom/name/v1/uuid-2",
      "score": 1,
      "source": {"links": {"self": "http://host/v0/data/org/dom/name/v1/uuid-2"}}
    }
  ],
  "links": {"next": "http://host/v0/data/?from=2&size=2", "self": "http://host/v0/data/?size=2"}
}`

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParse(t *testing.T) {
	list, err := Parse(decode(t, envelope))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Total() != 3 || list.Len() != 2 {
		t.Fatalf("total=%d len=%d", list.Total(), list.Len())
	}
	first := list.Results()[0]
	if first.ID() != "http://host/v0/data/org/dom/name/v1/uuid-1" {
		t.Errorf("id = %q", first.ID())
	}
	if first.Score() != 1.5 {
		t.Errorf("score = %v", first.Score())
	}
	if first.SchemaLink() != "http://host/v0/schemas/org/dom/name/v1" {
		t.Errorf("schema link = %q", first.SchemaLink())
	}
	second := list.Results()[1]
	if second.SelfLink() != "http://host/v0/data/org/dom/name/v1/uuid-2" {
		t.Errorf("self link = %q", second.SelfLink())
	}
	if second.SchemaLink() != "" {
		t.Errorf("schema link = %q", second.SchemaLink())
	}

	next, ok := list.NextLink()
	if !ok || next != "http://host/v0/data/?from=2&size=2" {
		t.Errorf("next = %q, %v", next, ok)
	}
	if _, ok := list.PreviousLink(); ok {
		t.Error("unexpected previous link")
	}
}

func TestParse_NoEnvelope(t *testing.T) {
	list, err := Parse(map[string]any{"@id": "x"})
	if err != nil || list != nil {
		t.Fatalf("Parse() = %v, %v; want nil, nil", list, err)
	}
	list, err = Parse(nil)
	if err != nil || list != nil {
		t.Fatalf("Parse(nil) = %v, %v; want nil, nil", list, err)
	}
}

func TestParse_BadResult(t *testing.T) {
	if _, err := Parse(map[string]any{"results": []any{"oops"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEntities(t *testing.T) {
	list, err := Parse(decode(t, envelope))
	if err != nil {
		t.Fatal(err)
	}
	list.Results()[1].SetEntity(entity.New(entity.KindInstance, "org/dom/name/v1/uuid-2", nil))
	got := list.Entities()
	if len(got) != 1 || got[0].UUID() != "uuid-2" {
		t.Fatalf("unexpected entities %v", got)
	}
}

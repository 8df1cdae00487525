package resource

import (
	"strings"
	"testing"
)

func TestDefaultCatalogValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestGet(t *testing.T) {
	c := Default()
	s, ok := c.Get("events")
	if !ok {
		t.Fatalf("events schema missing")
	}
	if s.Path != "/events" {
		t.Fatalf("unexpected path %s", s.Path)
	}
	if _, ok := c.Get("no-such"); ok {
		t.Fatalf("expected miss for unknown resource")
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	c := Catalog{Resources: []Schema{{
		Name: "things", Path: "/things",
		Fields: []Field{{Name: "a", Kind: Kind("blob")}},
	}}}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestValidateRejectsDanglingReference(t *testing.T) {
	c := Catalog{Resources: []Schema{{
		Name: "things", Path: "/things",
		Fields: []Field{{Name: "owner", Kind: Reference, Ref: "nobody"}},
	}}}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown resource") {
		t.Fatalf("expected dangling ref error, got %v", err)
	}
}

func TestValidateRejectsNestedInNested(t *testing.T) {
	c := Catalog{Resources: []Schema{{
		Name: "things", Path: "/things",
		Fields: []Field{{
			Name: "rows", Kind: Nested,
			Elem: []Field{{Name: "inner", Kind: Nested, Elem: []Field{{Name: "x", Kind: String}}}},
		}},
	}}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected nested-in-nested error")
	}
}

func TestFromYAML(t *testing.T) {
	doc := `
resources:
  - name: widgets
    title: Widgets
    path: /widgets
    fields:
      - name: title
        kind: string
        required: true
      - name: images
        kind: media
        min_items: 1
`
	c, err := FromYAML([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, ok := c.Get("widgets")
	if !ok {
		t.Fatalf("widgets missing")
	}
	f, ok := s.Field("images")
	if !ok || f.MinItems != 1 || f.Kind != Media {
		t.Fatalf("images field wrong: %+v ok=%v", f, ok)
	}
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	if _, err := FromYAML([]byte("resources: []")); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
	if _, err := FromYAML([]byte("resources: {not: a list")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestMediaFields(t *testing.T) {
	s, _ := Default().Get("events")
	mf := s.MediaFields()
	if len(mf) != 1 || mf[0].Name != "images" {
		t.Fatalf("unexpected media fields %+v", mf)
	}
}

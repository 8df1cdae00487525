package resource

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind classifies what an editor control and serializer do with a field.
type Kind string

const (
	String    Kind = "string"
	Int       Kind = "int"
	Float     Kind = "float"
	Bool      Kind = "bool"
	RichText  Kind = "richtext"
	Media     Kind = "media"
	Reference Kind = "reference"
	Nested    Kind = "nested"
)

// Field describes one editable field of a resource.
type Field struct {
	Name     string  `yaml:"name" json:"name"`
	Label    string  `yaml:"label,omitempty" json:"label,omitempty"`
	Kind     Kind    `yaml:"kind" json:"kind"`
	Required bool    `yaml:"required,omitempty" json:"required,omitempty"`
	MinItems int     `yaml:"min_items,omitempty" json:"min_items,omitempty"`
	Positive bool    `yaml:"positive,omitempty" json:"positive,omitempty"`
	Ref      string  `yaml:"ref,omitempty" json:"ref,omitempty"`
	Multi    bool    `yaml:"multi,omitempty" json:"multi,omitempty"`
	Elem     []Field `yaml:"elem,omitempty" json:"elem,omitempty"`
}

// Schema describes one backend-managed collection.
type Schema struct {
	Name   string  `yaml:"name" json:"name"`
	Title  string  `yaml:"title" json:"title"`
	Path   string  `yaml:"path" json:"path"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Catalog is the full set of resource schemas the panel manages.
type Catalog struct {
	Resources []Schema `yaml:"resources" json:"resources"`
}

// Field returns the named field, or false when the schema has no such field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MediaFields returns the schema's media fields in declaration order.
func (s Schema) MediaFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == Media {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the schema for a resource name.
func (c Catalog) Get(name string) (Schema, bool) {
	for _, s := range c.Resources {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// Validate ensures the catalog meets required structure.
func (c Catalog) Validate() error {
	if len(c.Resources) == 0 {
		return fmt.Errorf("catalog.resources is required")
	}
	seen := map[string]bool{}
	for _, s := range c.Resources {
		if s.Name == "" {
			return fmt.Errorf("catalog contains schema with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate resource %s", s.Name)
		}
		seen[s.Name] = true
		if s.Path == "" {
			return fmt.Errorf("resource %s: path is required", s.Name)
		}
		if len(s.Fields) == 0 {
			return fmt.Errorf("resource %s: fields are required", s.Name)
		}
		if err := validateFields(s.Name, s.Fields, true); err != nil {
			return err
		}
	}
	for _, s := range c.Resources {
		for _, f := range s.Fields {
			if f.Kind == Reference {
				if _, ok := c.Get(f.Ref); !ok {
					return fmt.Errorf("resource %s: field %s references unknown resource %s", s.Name, f.Name, f.Ref)
				}
			}
		}
	}
	return nil
}

func validateFields(resource string, fields []Field, allowNested bool) error {
	names := map[string]bool{}
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("resource %s: field with empty name", resource)
		}
		if names[f.Name] {
			return fmt.Errorf("resource %s: duplicate field %s", resource, f.Name)
		}
		names[f.Name] = true
		switch f.Kind {
		case String, Int, Float, Bool, RichText, Media:
		case Reference:
			if f.Ref == "" {
				return fmt.Errorf("resource %s: reference field %s needs ref", resource, f.Name)
			}
		case Nested:
			if !allowNested {
				return fmt.Errorf("resource %s: field %s nests inside a nested field", resource, f.Name)
			}
			if len(f.Elem) == 0 {
				return fmt.Errorf("resource %s: nested field %s needs elem fields", resource, f.Name)
			}
			if err := validateFields(resource, f.Elem, false); err != nil {
				return err
			}
		default:
			return fmt.Errorf("resource %s: field %s has unknown kind %q", resource, f.Name, f.Kind)
		}
		if f.Positive && f.Kind != Int && f.Kind != Float {
			return fmt.Errorf("resource %s: field %s: positive applies to numeric fields", resource, f.Name)
		}
		if f.MinItems > 0 && f.Kind != Media && f.Kind != Nested {
			return fmt.Errorf("resource %s: field %s: min_items applies to media and nested fields", resource, f.Name)
		}
	}
	return nil
}

// FromYAML parses and validates a catalog from raw YAML bytes.
func FromYAML(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

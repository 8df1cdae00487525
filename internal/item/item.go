// Package item models one record of a backend collection. Records are opaque
// to the engine: a stable server-assigned id plus schema-named field values.
package item

import "encoding/json"

// Item is a single resource record. The id is assigned by the backend and
// never fabricated client-side; Fields holds the scalar, rich-text, media
// reference, and nested values keyed by schema field name.
type Item struct {
	ID     string
	Fields map[string]any
}

// Field returns a field value, or nil when absent.
func (it Item) Field(name string) any {
	if it.Fields == nil {
		return nil
	}
	return it.Fields[name]
}

// Clone returns a shallow copy with its own field map.
func (it Item) Clone() Item {
	out := Item{ID: it.ID, Fields: make(map[string]any, len(it.Fields))}
	for k, v := range it.Fields {
		out.Fields[k] = v
	}
	return out
}

// MarshalJSON flattens the record into a single object with an "id" key.
func (it Item) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(it.Fields)+1)
	for k, v := range it.Fields {
		m[k] = v
	}
	if it.ID != "" {
		m["id"] = it.ID
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the "id" key out of a flat object.
func (it *Item) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if id, ok := m["id"].(string); ok {
		it.ID = id
	}
	delete(m, "id")
	it.Fields = m
	return nil
}

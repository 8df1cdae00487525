// Package draft is the transient state of an open editor dialog: the form's
// current values, its validation-error map, and the id of the record being
// edited. A draft lives from dialog open to close and is never persisted.
package draft

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"utsavya/internal/item"
	"utsavya/internal/media"
	"utsavya/internal/resource"
	"utsavya/internal/store"
)

// ValidationError carries the per-field messages of a failed submit. Create
// and update are never invoked while it is non-empty.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "invalid draft: " + strings.Join(parts, "; ")
}

// Draft is one editor dialog's working state. ItemID is empty in create mode.
type Draft struct {
	Schema resource.Schema
	ItemID string
	Values map[string]any
	Errors map[string]string
}

// New opens a create-mode draft with empty defaults.
func New(schema resource.Schema) *Draft {
	values := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		switch f.Kind {
		case resource.Bool:
			values[f.Name] = false
		case resource.Media:
			values[f.Name] = []media.Ref(nil)
		case resource.Nested:
			values[f.Name] = []map[string]any(nil)
		default:
			if f.Multi {
				values[f.Name] = []string(nil)
			} else {
				values[f.Name] = ""
			}
		}
	}
	return &Draft{Schema: schema, Values: values, Errors: map[string]string{}}
}

// FromItem opens an edit-mode draft seeded from a record, normalizing media
// fields into the mixed stored/pending sequence.
func FromItem(schema resource.Schema, it item.Item) (*Draft, error) {
	d := New(schema)
	d.ItemID = it.ID
	for _, f := range schema.Fields {
		v := it.Field(f.Name)
		if v == nil {
			continue
		}
		switch f.Kind {
		case resource.Media:
			refs, err := media.Normalize(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			d.Values[f.Name] = refs
		case resource.Nested:
			rows, err := nestedRows(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			d.Values[f.Name] = rows
		default:
			d.Values[f.Name] = v
		}
	}
	return d, nil
}

func nestedRows(v any) ([]map[string]any, error) {
	switch rows := v.(type) {
	case []map[string]any:
		return rows, nil
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("nested row %T is not an object", r)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nested value %T is not a row list", v)
	}
}

// Set assigns a field value. Nested and media values are normalized into
// their canonical shapes when they parse; anything else is stored as given
// and caught by Validate.
func (d *Draft) Set(name string, v any) {
	if f, ok := d.Schema.Field(name); ok {
		switch f.Kind {
		case resource.Nested:
			if rows, err := nestedRows(v); err == nil {
				d.Values[name] = rows
				return
			}
		case resource.Media:
			if refs, err := media.Normalize(v); err == nil {
				d.Values[name] = refs
				return
			}
		}
	}
	d.Values[name] = v
}

// Attach appends a pending binary to a media field.
func (d *Draft) Attach(name string, p media.Pending) error {
	f, ok := d.Schema.Field(name)
	if !ok || f.Kind != resource.Media {
		return fmt.Errorf("%s is not a media field", name)
	}
	refs, err := media.Normalize(d.Values[name])
	if err != nil {
		return err
	}
	d.Values[name] = append(refs, p)
	return nil
}

// Validate runs the schema's declarative rules and refreshes the error map:
// required fields, media minimum counts, numeric positivity.
func (d *Draft) Validate() map[string]string {
	errs := map[string]string{}
	for _, f := range d.Schema.Fields {
		v := d.Values[f.Name]
		switch f.Kind {
		case resource.Media:
			refs, err := media.Normalize(v)
			if err != nil {
				errs[f.Name] = err.Error()
				continue
			}
			if f.Required && len(refs) == 0 {
				errs[f.Name] = fmt.Sprintf("%s is required", f.Name)
				continue
			}
			if f.MinItems > 0 && len(refs) < f.MinItems {
				errs[f.Name] = fmt.Sprintf("%s needs at least %d entries", f.Name, f.MinItems)
			}
		case resource.Int, resource.Float:
			n, present := asFloat(v)
			if f.Required && !present {
				errs[f.Name] = fmt.Sprintf("%s is required", f.Name)
				continue
			}
			if present && f.Positive && n <= 0 {
				errs[f.Name] = fmt.Sprintf("%s must be positive", f.Name)
			}
		case resource.Nested:
			rows, _ := d.Values[f.Name].([]map[string]any)
			if f.Required && len(rows) == 0 {
				errs[f.Name] = fmt.Sprintf("%s is required", f.Name)
			}
		default:
			if f.Required && isEmpty(v) {
				errs[f.Name] = fmt.Sprintf("%s is required", f.Name)
			}
		}
	}
	d.Errors = errs
	return errs
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case bool:
		return false
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// RefetchError reports that create or update committed but the reconciling
// list fetch failed. The record exists on the server; retrying the submit
// would duplicate it.
type RefetchError struct {
	Err error
}

func (e *RefetchError) Error() string { return fmt.Sprintf("list refetch failed: %v", e.Err) }
func (e *RefetchError) Unwrap() error { return e.Err }

// Submit validates, assembles the payload, dispatches create or update by
// mode, then reconciles with an explicit awaited list fetch. A validation
// or mutation failure keeps the draft intact for retry; once the mutation
// has committed, a failed refetch surfaces as RefetchError alongside the
// stored item.
func (d *Draft) Submit(ctx context.Context, st *store.Store) (item.Item, error) {
	if errs := d.Validate(); len(errs) != 0 {
		return item.Item{}, &ValidationError{Fields: errs}
	}
	p, err := d.Payload()
	if err != nil {
		return item.Item{}, err
	}
	var it item.Item
	if d.ItemID == "" {
		it, err = st.RequestCreate(ctx, p)
	} else {
		it, _, err = st.RequestUpdate(ctx, d.ItemID, p)
	}
	if err != nil {
		return item.Item{}, err
	}
	if _, err := st.RequestList(ctx); err != nil {
		return it, &RefetchError{Err: err}
	}
	return it, nil
}

package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"utsavya/internal/client"
	"utsavya/internal/media"
	"utsavya/internal/resource"
)

// Payload assembles the outgoing request body. Multipart encoding is used
// whenever any media field holds a pending binary; otherwise plain JSON.
func (d *Draft) Payload() (client.Payload, error) {
	if d.hasPending() {
		return d.multipartPayload()
	}
	return d.jsonPayload()
}

func (d *Draft) hasPending() bool {
	for _, f := range d.Schema.MediaFields() {
		refs, err := media.Normalize(d.Values[f.Name])
		if err == nil && media.HasPending(refs) {
			return true
		}
	}
	return false
}

func (d *Draft) jsonPayload() (client.Payload, error) {
	body := make(map[string]any, len(d.Schema.Fields))
	for _, f := range d.Schema.Fields {
		v, ok := d.Values[f.Name]
		if !ok || v == nil {
			continue
		}
		if f.Kind == resource.Media {
			refs, err := media.Normalize(v)
			if err != nil {
				return client.Payload{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			body[f.Name] = media.URLs(refs)
			continue
		}
		body[f.Name] = v
	}
	return client.JSONPayload(body)
}

// multipartPayload appends each pending binary under its field name (a
// repeated key for multi-file fields) and each already-persisted reference
// under the field's "existing" key, so the server can reconcile which stored
// media to retain. Scalars are string-coerced; nested rows flatten into
// indexed bracket-notation keys.
func (d *Draft) multipartPayload() (client.Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range d.Schema.Fields {
		v, ok := d.Values[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case resource.Media:
			refs, err := media.Normalize(v)
			if err != nil {
				return client.Payload{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			for _, r := range refs {
				switch e := r.(type) {
				case media.Pending:
					fw, err := w.CreateFormFile(f.Name, e.Name)
					if err != nil {
						return client.Payload{}, err
					}
					if _, err := fw.Write(e.Data); err != nil {
						return client.Payload{}, err
					}
				case media.Stored:
					if err := w.WriteField(ExistingKey(f.Name), e.URL); err != nil {
						return client.Payload{}, err
					}
				}
			}
		case resource.Nested:
			rows, err := nestedRows(v)
			if err != nil {
				return client.Payload{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			if err := writeNested(w, f, rows); err != nil {
				return client.Payload{}, err
			}
		default:
			if err := writeScalar(w, f.Name, v); err != nil {
				return client.Payload{}, err
			}
		}
	}
	if err := w.Close(); err != nil {
		return client.Payload{}, err
	}
	return client.Payload{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

func writeNested(w *multipart.Writer, f resource.Field, rows []map[string]any) error {
	for i, row := range rows {
		for _, sub := range f.Elem {
			v, ok := row[sub.Name]
			if !ok || v == nil {
				continue
			}
			if sub.Multi {
				for j, e := range toList(v) {
					key := fmt.Sprintf("%s[%d][%s][%d]", f.Name, i, sub.Name, j)
					if err := w.WriteField(key, coerce(e)); err != nil {
						return err
					}
				}
				continue
			}
			key := fmt.Sprintf("%s[%d][%s]", f.Name, i, sub.Name)
			if err := w.WriteField(key, coerce(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeScalar(w *multipart.Writer, name string, v any) error {
	if list, ok := v.([]string); ok {
		for _, e := range list {
			if err := w.WriteField(name, e); err != nil {
				return err
			}
		}
		return nil
	}
	if list, ok := v.([]any); ok {
		for _, e := range list {
			if err := w.WriteField(name, coerce(e)); err != nil {
				return err
			}
		}
		return nil
	}
	return w.WriteField(name, coerce(v))
}

func toList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{t}
	}
}

func coerce(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// ExistingKey is the parallel key carrying already-stored references to
// retain, e.g. images -> existingImages.
func ExistingKey(field string) string {
	if field == "" {
		return "existing"
	}
	return "existing" + strings.ToUpper(field[:1]) + field[1:]
}

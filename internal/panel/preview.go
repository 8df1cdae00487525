package panel

import (
	"fmt"
	"strings"

	"utsavya/internal/item"
	"utsavya/internal/media"
	"utsavya/internal/resource"
	"utsavya/internal/richtext"
)

// Preview is the read-only rendering of one record. Rich-text fields pass
// through the sanitizer; media fields open a lightbox at the clicked index.
type Preview struct {
	Schema resource.Schema
	Item   item.Item
}

// RenderField returns the display string for one field.
func (p Preview) RenderField(name string) (string, error) {
	f, ok := p.Schema.Field(name)
	if !ok {
		return "", fmt.Errorf("unknown field %s", name)
	}
	v := p.Item.Field(name)
	if v == nil {
		return "", nil
	}
	switch f.Kind {
	case resource.RichText:
		s, _ := v.(string)
		return richtext.Sanitize(s), nil
	case resource.Media:
		refs, err := media.Normalize(v)
		if err != nil {
			return "", err
		}
		urls := media.URLs(refs)
		return strings.Join(urls, ", "), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Lightbox opens the full-screen viewer for a media field, positioned at the
// clicked index.
func (p Preview) Lightbox(field string, index int) (*Lightbox, error) {
	f, ok := p.Schema.Field(field)
	if !ok || f.Kind != resource.Media {
		return nil, fmt.Errorf("%s is not a media field", field)
	}
	refs, err := media.Normalize(p.Item.Field(field))
	if err != nil {
		return nil, err
	}
	urls := media.URLs(refs)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%s has no stored media", field)
	}
	if index < 0 || index >= len(urls) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	return &Lightbox{URLs: urls, Index: index}, nil
}

// Lightbox is the viewer state over a media field's stored references.
type Lightbox struct {
	URLs  []string
	Index int
}

// Current returns the URL in view.
func (l *Lightbox) Current() string { return l.URLs[l.Index] }

// Next advances with wrap-around.
func (l *Lightbox) Next() { l.Index = (l.Index + 1) % len(l.URLs) }

// Prev steps back with wrap-around.
func (l *Lightbox) Prev() { l.Index = (l.Index - 1 + len(l.URLs)) % len(l.URLs) }

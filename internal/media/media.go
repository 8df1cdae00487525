// Package media models a media field's value: an ordered sequence mixing
// references that are already persisted server-side with freshly selected
// binaries that are not yet uploaded.
package media

import "fmt"

// Ref is one entry of a media field. It is a closed union: Stored or Pending.
type Ref interface {
	isRef()
}

// Stored is a reference already persisted server-side.
type Stored struct {
	URL string
}

// Pending is a freshly selected, not-yet-uploaded binary.
type Pending struct {
	Name string
	Data []byte
}

func (Stored) isRef()  {}
func (Pending) isRef() {}

// Normalize seeds the mixed sequence from a decoded field value. Persisted
// items arrive as strings (or a single string); anything else is rejected so
// serialization stays exhaustive over the union.
func Normalize(v any) ([]Ref, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if val == "" {
			return nil, nil
		}
		return []Ref{Stored{URL: val}}, nil
	case []string:
		refs := make([]Ref, 0, len(val))
		for _, u := range val {
			refs = append(refs, Stored{URL: u})
		}
		return refs, nil
	case []Ref:
		return val, nil
	case []any:
		refs := make([]Ref, 0, len(val))
		for _, e := range val {
			switch entry := e.(type) {
			case string:
				refs = append(refs, Stored{URL: entry})
			case Stored:
				refs = append(refs, entry)
			case Pending:
				refs = append(refs, entry)
			default:
				return nil, fmt.Errorf("media entry %T is neither a stored reference nor a pending binary", e)
			}
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("media value %T is not a reference sequence", v)
	}
}

// Split partitions a sequence into its pending binaries and stored URLs,
// preserving relative order within each class.
func Split(refs []Ref) (pending []Pending, stored []string) {
	for _, r := range refs {
		switch v := r.(type) {
		case Pending:
			pending = append(pending, v)
		case Stored:
			stored = append(stored, v.URL)
		}
	}
	return pending, stored
}

// HasPending reports whether any entry is a not-yet-uploaded binary.
func HasPending(refs []Ref) bool {
	for _, r := range refs {
		if _, ok := r.(Pending); ok {
			return true
		}
	}
	return false
}

// URLs returns the stored URLs in order, ignoring pending entries.
func URLs(refs []Ref) []string {
	_, stored := Split(refs)
	return stored
}

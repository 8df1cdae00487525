package media

import "testing"

func TestNormalizeMixed(t *testing.T) {
	refs, err := Normalize([]any{"https://cdn/a.png", Pending{Name: "b.png", Data: []byte{1}}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("want 2 refs, got %d", len(refs))
	}
	if s, ok := refs[0].(Stored); !ok || s.URL != "https://cdn/a.png" {
		t.Fatalf("first ref wrong: %#v", refs[0])
	}
	if !HasPending(refs) {
		t.Fatalf("expected pending detected")
	}
}

func TestNormalizeStringAndNil(t *testing.T) {
	refs, err := Normalize("https://cdn/x.png")
	if err != nil || len(refs) != 1 {
		t.Fatalf("single string: %v %v", refs, err)
	}
	refs, err = Normalize(nil)
	if err != nil || refs != nil {
		t.Fatalf("nil: %v %v", refs, err)
	}
	refs, err = Normalize("")
	if err != nil || refs != nil {
		t.Fatalf("empty string: %v %v", refs, err)
	}
}

func TestNormalizeRejectsForeignTypes(t *testing.T) {
	if _, err := Normalize([]any{42}); err == nil {
		t.Fatalf("expected error for numeric entry")
	}
	if _, err := Normalize(7); err == nil {
		t.Fatalf("expected error for non-sequence value")
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	refs := []Ref{
		Stored{URL: "u1"},
		Pending{Name: "p1"},
		Stored{URL: "u2"},
		Pending{Name: "p2"},
	}
	pending, stored := Split(refs)
	if len(pending) != 2 || pending[0].Name != "p1" || pending[1].Name != "p2" {
		t.Fatalf("pending order wrong: %+v", pending)
	}
	if len(stored) != 2 || stored[0] != "u1" || stored[1] != "u2" {
		t.Fatalf("stored order wrong: %+v", stored)
	}
	if got := URLs(refs); len(got) != 2 || got[0] != "u1" {
		t.Fatalf("urls wrong: %+v", got)
	}
}

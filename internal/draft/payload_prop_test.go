package draft

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"utsavya/internal/media"
	"utsavya/internal/resource"
)

// For any mix of pending binaries and stored references, the multipart body
// carries exactly one file entry per pending and one existing entry per
// stored; with zero pendings the payload is JSON.
func TestPayloadShapeProperty(t *testing.T) {
	schema, _ := resource.Default().Get("gallery")
	rapid.Check(t, func(rt *rapid.T) {
		nPending := rapid.IntRange(0, 6).Draw(rt, "pending")
		nStored := rapid.IntRange(0, 6).Draw(rt, "stored")

		refs := make([]media.Ref, 0, nPending+nStored)
		for i := 0; i < nPending; i++ {
			refs = append(refs, media.Pending{Name: fmt.Sprintf("f%d.png", i), Data: []byte{byte(i)}})
		}
		for i := 0; i < nStored; i++ {
			refs = append(refs, media.Stored{URL: fmt.Sprintf("https://cdn/%d.png", i)})
		}
		// interleave deterministically by rotating
		rot := rapid.IntRange(0, len(refs)).Draw(rt, "rot")
		refs = append(refs[rot:], refs[:rot]...)

		d := New(schema)
		d.Set("title", "Album")
		d.Values["images"] = refs

		p, err := d.Payload()
		if err != nil {
			rt.Fatalf("payload: %v", err)
		}
		if nPending == 0 {
			if p.ContentType != "application/json" {
				rt.Fatalf("want json, got %s", p.ContentType)
			}
			return
		}
		files, fields := parseMultipart(t, p)
		if len(files["images"]) != nPending {
			rt.Fatalf("file entries %d, want %d", len(files["images"]), nPending)
		}
		if len(fields["existingImages"]) != nStored {
			rt.Fatalf("existing entries %d, want %d", len(fields["existingImages"]), nStored)
		}
	})
}

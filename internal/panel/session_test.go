package panel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"utsavya/internal/client"
	"utsavya/internal/draft"
	"utsavya/internal/resource"
	"utsavya/internal/store"
)

type fakeBackend struct {
	mu       sync.Mutex
	items    []map[string]any
	failDel  bool
	failList bool
	posts    int
}

func (b *fakeBackend) setFailList(v bool) {
	b.mu.Lock()
	b.failList = v
	b.mu.Unlock()
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			if b.failList {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(b.items)
		case http.MethodPost:
			b.posts++
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["id"] = "new"
			b.items = append(b.items, body)
			json.NewEncoder(w).Encode(body)
		}
	})
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failDel {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/news/")
		kept := b.items[:0]
		for _, it := range b.items {
			if it["id"] != id {
				kept = append(kept, it)
			}
		}
		b.items = kept
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newsSchema() resource.Schema {
	return resource.Schema{
		Name:  "news",
		Title: "News",
		Path:  "/news",
		Fields: []resource.Field{
			{Name: "title", Label: "Title", Kind: resource.String, Required: true},
			{Name: "content", Label: "Content", Kind: resource.RichText},
			{Name: "images", Label: "Images", Kind: resource.Media},
		},
	}
}

func testSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	st := store.New(client.New(srv.URL, "/news"), zerolog.Nop())
	if _, err := st.RequestList(context.Background()); err != nil {
		t.Fatalf("seed list: %v", err)
	}
	return NewSession(newsSchema(), st)
}

func TestOneDialogAtATime(t *testing.T) {
	backend := &fakeBackend{items: []map[string]any{
		{"id": "a", "title": "A"},
	}}
	s := testSession(t, backend)

	if err := s.OpenEdit("a"); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if err := s.OpenCreate(); !errors.Is(err, ErrDialogOpen) {
		t.Fatalf("want ErrDialogOpen, got %v", err)
	}
	if err := s.OpenDelete("a"); !errors.Is(err, ErrDialogOpen) {
		t.Fatalf("want ErrDialogOpen, got %v", err)
	}
	if _, err := s.OpenPreview("a"); !errors.Is(err, ErrDialogOpen) {
		t.Fatalf("want ErrDialogOpen, got %v", err)
	}
	s.Cancel()
	if s.Mode() != Closed {
		t.Fatalf("cancel left mode %s", s.Mode())
	}
	if err := s.OpenCreate(); err != nil {
		t.Fatalf("open after cancel: %v", err)
	}
}

func TestOpenEditUnknownID(t *testing.T) {
	s := testSession(t, &fakeBackend{})
	if err := s.OpenEdit("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if s.Mode() != Closed {
		t.Fatalf("failed open changed mode to %s", s.Mode())
	}
}

func TestDeleteConfirmFlow(t *testing.T) {
	backend := &fakeBackend{items: []map[string]any{
		{"id": "a", "title": "A"},
		{"id": "b", "title": "B"},
	}}
	s := testSession(t, backend)

	if err := s.OpenDelete("b"); err != nil {
		t.Fatalf("open delete: %v", err)
	}
	if s.PendingDelete() != "b" {
		t.Fatalf("pending id %q", s.PendingDelete())
	}
	if err := s.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if s.Mode() != Closed {
		t.Fatalf("dialog still open: %s", s.Mode())
	}
	items := s.Store.Items()
	if len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("list after delete: %+v", items)
	}
}

func TestCancelDiscardsPendingDelete(t *testing.T) {
	backend := &fakeBackend{items: []map[string]any{
		{"id": "a", "title": "A"},
	}}
	s := testSession(t, backend)

	if err := s.OpenDelete("a"); err != nil {
		t.Fatalf("open delete: %v", err)
	}
	s.Cancel()
	if s.PendingDelete() != "" {
		t.Fatalf("pending id survived cancel")
	}
	if s.Store.Len() != 1 {
		t.Fatalf("cancel mutated the list")
	}
}

func TestFailedDeleteKeepsDialogAndRow(t *testing.T) {
	backend := &fakeBackend{
		items:   []map[string]any{{"id": "a", "title": "A"}},
		failDel: true,
	}
	s := testSession(t, backend)

	if err := s.OpenDelete("a"); err != nil {
		t.Fatalf("open delete: %v", err)
	}
	if err := s.ConfirmDelete(context.Background()); err == nil {
		t.Fatalf("confirm should fail")
	}
	if s.Mode() != ConfirmingDelete {
		t.Fatalf("dialog closed after failure: %s", s.Mode())
	}
	if s.Store.Len() != 1 {
		t.Fatalf("row removed despite failed delete")
	}
}

func TestSubmitFailureKeepsEditorOpen(t *testing.T) {
	s := testSession(t, &fakeBackend{})

	if err := s.OpenCreate(); err != nil {
		t.Fatalf("open create: %v", err)
	}
	// required title left empty
	if _, err := s.SubmitDraft(context.Background()); err == nil {
		t.Fatalf("submit should fail validation")
	}
	if s.Mode() != Creating {
		t.Fatalf("editor closed on failure: %s", s.Mode())
	}
	if s.Draft() == nil {
		t.Fatalf("draft discarded on failure")
	}

	s.Draft().Set("title", "Hello")
	it, err := s.SubmitDraft(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if it.ID != "new" {
		t.Fatalf("created id %q", it.ID)
	}
	if s.Mode() != Closed {
		t.Fatalf("editor still open after success")
	}
	if s.Draft() != nil {
		t.Fatalf("draft survived success")
	}
}

func TestPreviewSanitizesAndOpensLightbox(t *testing.T) {
	backend := &fakeBackend{items: []map[string]any{{
		"id":      "a",
		"title":   "A",
		"content": `<p>ok</p><script>alert(1)</script>`,
		"images":  []any{"/media/one.jpg", "/media/two.jpg", "/media/three.jpg"},
	}}}
	s := testSession(t, backend)

	p, err := s.OpenPreview("a")
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	got, err := p.RenderField("content")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got, "<script") {
		t.Fatalf("script survived sanitizer: %s", got)
	}
	if !strings.Contains(got, "<p>ok</p>") {
		t.Fatalf("formatting stripped: %s", got)
	}

	lb, err := p.Lightbox("images", 1)
	if err != nil {
		t.Fatalf("lightbox: %v", err)
	}
	if lb.Current() != "/media/two.jpg" {
		t.Fatalf("opened at %s", lb.Current())
	}
	lb.Next()
	lb.Next()
	if lb.Current() != "/media/one.jpg" {
		t.Fatalf("next did not wrap: %s", lb.Current())
	}
	lb.Prev()
	if lb.Current() != "/media/three.jpg" {
		t.Fatalf("prev did not wrap: %s", lb.Current())
	}

	if _, err := p.Lightbox("images", 9); err == nil {
		t.Fatalf("out-of-range index accepted")
	}
	if _, err := p.Lightbox("title", 0); err == nil {
		t.Fatalf("non-media field accepted")
	}
}

func TestRenderListStates(t *testing.T) {
	backend := &fakeBackend{items: []map[string]any{
		{"id": "a", "title": "A", "images": []any{"/media/one.jpg", "/media/two.jpg"}},
		{"id": "b", "title": "B"},
	}}
	s := testSession(t, backend)

	var buf strings.Builder
	RenderList(&buf, s.Schema, s.Store, s.Pager)
	out := buf.String()
	if !strings.Contains(out, "a") || !strings.Contains(out, "B") {
		t.Fatalf("rows missing:\n%s", out)
	}
	if !strings.Contains(out, "2 files") {
		t.Fatalf("media cell missing:\n%s", out)
	}
	if !strings.Contains(out, "page 1/1 (2 total)") {
		t.Fatalf("footer missing:\n%s", out)
	}

	empty := testSession(t, &fakeBackend{})
	buf.Reset()
	RenderList(&buf, empty.Schema, empty.Store, empty.Pager)
	if !strings.Contains(buf.String(), "No news yet.") {
		t.Fatalf("empty state missing: %q", buf.String())
	}
}

// Once the create has committed, a failed reconciling fetch must not leave
// the editor open inviting a duplicate submit.
func TestSubmitRefetchFailureClosesEditor(t *testing.T) {
	backend := &fakeBackend{}
	s := testSession(t, backend)

	if err := s.OpenCreate(); err != nil {
		t.Fatalf("open create: %v", err)
	}
	s.Draft().Set("title", "Hello")
	backend.setFailList(true)

	it, err := s.SubmitDraft(context.Background())
	var re *draft.RefetchError
	if !errors.As(err, &re) {
		t.Fatalf("want RefetchError, got %v", err)
	}
	if it.ID != "new" {
		t.Fatalf("committed item lost: %+v", it)
	}
	if s.Mode() != Closed {
		t.Fatalf("editor still open: %s", s.Mode())
	}
	if s.Draft() != nil {
		t.Fatalf("draft survived committed submit")
	}
	backend.mu.Lock()
	posts := backend.posts
	backend.mu.Unlock()
	if posts != 1 {
		t.Fatalf("%d POSTs for one logical create", posts)
	}
}

func TestConfirmDeleteRefetchFailureCloses(t *testing.T) {
	backend := &fakeBackend{items: []map[string]any{
		{"id": "a", "title": "A"},
	}}
	s := testSession(t, backend)

	if err := s.OpenDelete("a"); err != nil {
		t.Fatalf("open delete: %v", err)
	}
	backend.setFailList(true)

	err := s.ConfirmDelete(context.Background())
	var re *draft.RefetchError
	if !errors.As(err, &re) {
		t.Fatalf("want RefetchError, got %v", err)
	}
	if s.Mode() != Closed {
		t.Fatalf("dialog still open: %s", s.Mode())
	}
	if s.Store.Len() != 0 {
		t.Fatalf("deleted row still cached")
	}
}

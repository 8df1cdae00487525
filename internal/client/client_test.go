package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListDecodesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"e1","title":"Founders Day"},{"id":"e2","title":"Gala"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "/events")
	items, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "e1" || items[0].Field("title") != "Founders Day" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestCreateSendsJSONAndBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("auth header %q", auth)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "n1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := New(srv.URL, "/news")
	c.Token = "tok"
	p, err := JSONPayload(map[string]any{"title": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	it, err := c.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.ID != "n1" || it.Field("title") != "hello" {
		t.Fatalf("unexpected item %+v", it)
	}
}

func TestDeleteEmptyBodyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/product/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "/product")
	if err := c.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestServerErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"bad_request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "/events")
	_, err := c.List(context.Background())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("want ServerError, got %v", err)
	}
	if se.Status != http.StatusBadRequest || se.Body == "" {
		t.Fatalf("unexpected server error %+v", se)
	}
}

func TestNetworkErrorWhenUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "/events")
	_, err := c.List(context.Background())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("want NetworkError, got %v", err)
	}
}

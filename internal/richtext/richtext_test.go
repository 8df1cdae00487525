package richtext

import (
	"strings"
	"testing"
)

func TestSanitizeKeepsFormatting(t *testing.T) {
	in := `<p>Gala <strong>night</strong></p>`
	out := Sanitize(in)
	if out != in {
		t.Fatalf("benign markup altered: %q", out)
	}
}

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`<p>hi</p><script>alert(1)</script>`)
	if strings.Contains(out, "script") {
		t.Fatalf("script survived: %q", out)
	}
}

func TestSanitizeStripsEventHandlers(t *testing.T) {
	out := Sanitize(`<img src="https://cdn/a.png" onerror="steal()">`)
	if strings.Contains(out, "onerror") {
		t.Fatalf("event handler survived: %q", out)
	}
	if !strings.Contains(out, "cdn/a.png") {
		t.Fatalf("image src lost: %q", out)
	}
}

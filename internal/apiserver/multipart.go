package apiserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"utsavya/internal/resource"
)

const maxUploadBytes = 64 << 20

// MediaDir stores uploaded files under the workspace and serves them back
// by URL path.
type MediaDir struct {
	Root string
}

// NewMediaDir ensures the workspace media directory exists.
func NewMediaDir(workspace string) (*MediaDir, error) {
	root := filepath.Join(workspace, "media")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &MediaDir{Root: root}, nil
}

// Save writes one upload and returns its serving URL.
func (m *MediaDir) Save(name string, r io.Reader) (string, error) {
	stored := uuid.NewString() + "_" + sanitizeFilename(name)
	f, err := os.Create(filepath.Join(m.Root, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return "/media/" + stored, nil
}

// Handler serves the stored files at /media/.
func (m *MediaDir) Handler() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(http.Dir(m.Root)))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

// nestedKeyRe matches collection[i][field] and collection[i][field][j] keys.
var nestedKeyRe = regexp.MustCompile(`^(\w+)\[(\d+)\]\[(\w+)\](?:\[(\d+)\])?$`)

// decodeMultipart turns a multipart form into the same field map a JSON body
// would produce. File parts become stored media URLs, existing<Field> values
// carry the URLs kept from before, and bracketed keys rebuild nested rows.
func decodeMultipart(r *http.Request, schema resource.Schema, media *MediaDir) (map[string]any, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	form := r.MultipartForm
	defer form.RemoveAll()

	fields := map[string]any{}
	mediaURLs := map[string][]string{}
	nested := map[string]map[int]map[string]any{}
	nestedLists := map[string]map[int]map[string]map[int]string{}

	for key, vals := range form.Value {
		if f, ok := existingMediaField(schema, key); ok {
			mediaURLs[f.Name] = append(mediaURLs[f.Name], vals...)
			continue
		}
		if m := nestedKeyRe.FindStringSubmatch(key); m != nil {
			field, sub := m[1], m[3]
			idx, _ := strconv.Atoi(m[2])
			if m[4] != "" {
				subIdx, _ := strconv.Atoi(m[4])
				if nestedLists[field] == nil {
					nestedLists[field] = map[int]map[string]map[int]string{}
				}
				if nestedLists[field][idx] == nil {
					nestedLists[field][idx] = map[string]map[int]string{}
				}
				if nestedLists[field][idx][sub] == nil {
					nestedLists[field][idx][sub] = map[int]string{}
				}
				nestedLists[field][idx][sub][subIdx] = vals[0]
				continue
			}
			if nested[field] == nil {
				nested[field] = map[int]map[string]any{}
			}
			if nested[field][idx] == nil {
				nested[field][idx] = map[string]any{}
			}
			nested[field][idx][sub] = coerceNestedValue(schema, field, sub, vals[0])
			continue
		}
		f, known := schema.Field(key)
		switch {
		case known && f.Multi, len(vals) > 1:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			fields[key] = list
		case known:
			fields[key] = coerceValue(f.Kind, vals[0])
		default:
			fields[key] = vals[0]
		}
	}

	// Uploads append after the kept URLs, preserving each class's order.
	fileKeys := make([]string, 0, len(form.File))
	for key := range form.File {
		fileKeys = append(fileKeys, key)
	}
	sort.Strings(fileKeys)
	for _, key := range fileKeys {
		for _, fh := range form.File[key] {
			url, err := saveUpload(media, fh)
			if err != nil {
				return nil, err
			}
			mediaURLs[key] = append(mediaURLs[key], url)
		}
	}
	for name, urls := range mediaURLs {
		list := make([]any, len(urls))
		for i, u := range urls {
			list[i] = u
		}
		fields[name] = list
	}

	for name, rows := range nested {
		for idx, lists := range nestedLists[name] {
			if rows[idx] == nil {
				rows[idx] = map[string]any{}
			}
			for sub, byIdx := range lists {
				rows[idx][sub] = orderedValues(byIdx)
			}
		}
		fields[name] = orderedRows(rows)
	}
	// A nested list may arrive with only sub-list keys.
	for name, lists := range nestedLists {
		if _, done := nested[name]; done {
			continue
		}
		rows := map[int]map[string]any{}
		for idx, byField := range lists {
			rows[idx] = map[string]any{}
			for sub, byIdx := range byField {
				rows[idx][sub] = orderedValues(byIdx)
			}
		}
		fields[name] = orderedRows(rows)
	}

	return fields, nil
}

func saveUpload(media *MediaDir, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return media.Save(fh.Filename, src)
}

// existingMediaField maps an existingImages style key back to its media
// field.
func existingMediaField(schema resource.Schema, key string) (resource.Field, bool) {
	rest, ok := strings.CutPrefix(key, "existing")
	if !ok || rest == "" {
		return resource.Field{}, false
	}
	name := strings.ToLower(rest[:1]) + rest[1:]
	f, ok := schema.Field(name)
	if !ok || f.Kind != resource.Media {
		return resource.Field{}, false
	}
	return f, true
}

func coerceNestedValue(schema resource.Schema, field, sub, v string) any {
	f, ok := schema.Field(field)
	if !ok || f.Kind != resource.Nested {
		return v
	}
	for _, ef := range f.Elem {
		if ef.Name == sub {
			return coerceValue(ef.Kind, v)
		}
	}
	return v
}

func coerceValue(kind resource.Kind, v string) any {
	switch kind {
	case resource.Bool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return v
		}
		return b
	case resource.Int, resource.Float:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return v
		}
		return n
	default:
		return v
	}
}

func orderedRows(rows map[int]map[string]any) []any {
	idxs := make([]int, 0, len(rows))
	for i := range rows {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make([]any, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, rows[i])
	}
	return out
}

func orderedValues(byIdx map[int]string) []any {
	idxs := make([]int, 0, len(byIdx))
	for i := range byIdx {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make([]any, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, byIdx[i])
	}
	return out
}

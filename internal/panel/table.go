package panel

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"utsavya/internal/item"
	"utsavya/internal/media"
	"utsavya/internal/resource"
	"utsavya/internal/store"
)

// RenderList writes the current page as a table. The empty state is explicit
// and distinct from loading.
func RenderList(w io.Writer, schema resource.Schema, st *store.Store, pager Pager) {
	if st.Status() == store.Loading {
		fmt.Fprintf(w, "Loading %s...\n", strings.ToLower(schema.Title))
		return
	}
	items := st.Items()
	if len(items) == 0 {
		fmt.Fprintf(w, "No %s yet.\n", strings.ToLower(schema.Title))
		return
	}

	cols := listColumns(schema)
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	header := table.Row{"ID"}
	for _, c := range cols {
		header = append(header, c.Name)
	}
	tw.AppendHeader(header)
	for _, it := range pager.Slice(items) {
		row := table.Row{it.ID}
		for _, c := range cols {
			row = append(row, cellValue(c, it))
		}
		tw.AppendRow(row)
	}
	tw.Render()
	fmt.Fprintf(w, "page %d/%d (%d total)\n", pager.Current, pager.PageCount(len(items)), len(items))
}

// listColumns picks the fields worth a table cell; rich text and nested rows
// stay in the preview dialog.
func listColumns(schema resource.Schema) []resource.Field {
	var cols []resource.Field
	for _, f := range schema.Fields {
		switch f.Kind {
		case resource.RichText, resource.Nested:
			continue
		default:
			cols = append(cols, f)
		}
		if len(cols) == 5 {
			break
		}
	}
	return cols
}

func cellValue(f resource.Field, it item.Item) string {
	v := it.Field(f.Name)
	if v == nil {
		return ""
	}
	if f.Kind == resource.Media {
		refs, err := media.Normalize(v)
		if err != nil {
			return "?"
		}
		n := len(media.URLs(refs))
		if n == 1 {
			return "1 file"
		}
		return fmt.Sprintf("%d files", n)
	}
	return fmt.Sprint(v)
}

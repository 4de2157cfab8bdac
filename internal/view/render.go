// internal/view/render.go
//
// View engine: embedded templates, head injection, and the JSON encoder.
//
// Public helpers
// --------------
//   - Renderer.HTML – write the full page (form or confirmation).
//   - Renderer.JSON – write the result object.
//
// All templates live under templates/ and are parsed once as one set so
// sub-templates ({{ template "field" . }}) work out of the box.  The
// renderer is read-only after New and safe for concurrent use.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yanizio/formdesk/internal/head"
)

//go:embed templates/*.html
var files embed.FS

// Renderer writes Models as HTML or JSON.
type Renderer struct {
	t *template.Template
}

// page is the root template data.
type page struct {
	Head  *head.Builder
	Lang  string
	Model *Model
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.New("layout").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// HTML writes the full HTML page for m.
func (r *Renderer) HTML(w io.Writer, m *Model) error {
	h := head.New()
	h.Charset("utf-8")
	h.Meta("viewport", "width=device-width, initial-scale=1")
	h.Meta("robots", "noindex")
	h.Link("icon", "data:,")
	if m.Submitted {
		h.SetTitle(m.ThankYou)
	} else {
		h.SetTitle(m.Title)
	}
	return r.t.ExecuteTemplate(w, "layout.html", page{Head: h, Lang: m.Lang, Model: m})
}

// JSON writes m as the result object.
func (r *Renderer) JSON(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(m)
}

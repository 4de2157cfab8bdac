// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single render call.  The view layer
// pushes the title and tags, then the layout template emits them.
//
// Features
// --------
//   - SetTitle     – single <title> tag (last call wins).
//   - Meta, Link   – attribute-escaped tags, deduplicated by content.
//   - Render helpers return template.HTML for the layout.
package head

import (
	"html/template"
	"strings"
)

// Builder is not safe for concurrent use.  One is built per render.
type Builder struct {
	title string
	metas []string
	links []string
	seen  map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Charset adds <meta charset=…>.
func (b *Builder) Charset(cs string) {
	b.add(&b.metas, `<meta charset="`+esc(cs)+`">`)
}

// Meta adds <meta name=… content=…>.
func (b *Builder) Meta(name, content string) {
	b.add(&b.metas, `<meta name="`+esc(name)+`" content="`+esc(content)+`">`)
}

// Link adds <link rel=… href=…>.
func (b *Builder) Link(rel, href string) {
	b.add(&b.links, `<link rel="`+esc(rel)+`" href="`+esc(href)+`">`)
}

func (b *Builder) add(tgt *[]string, tag string) {
	if _, dup := b.seen[tag]; dup {
		return
	}
	b.seen[tag] = struct{}{}
	*tgt = append(*tgt, tag)
}

func (b *Builder) Metas() template.HTML { return concat(b.metas) }
func (b *Builder) Links() template.HTML { return concat(b.links) }

func esc(s string) string { return template.HTMLEscapeString(s) }

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}

// components/forms/browser_test.go
//
// Simulated browser for the end-to-end tests.
//
// Context
// -------
// The browser parses each response with golang.org/x/net/html, finds
// controls through their <label>, and posts the enclosing form when a
// button is pressed, including the button's own name and value.  A cookie
// jar is kept so the client behaves like a real one.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package forms

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// browser is a tiny form-filling client: it parses each page, lets tests
// type into fields found by their <label>, and submits the enclosing form
// when a button is clicked, the way a user would.
type browser struct {
	t      *testing.T
	base   *url.URL
	client *http.Client
	doc    *html.Node
	url    *url.URL
}

func newBrowser(t *testing.T, baseURL string) *browser {
	t.Helper()
	u, err := url.Parse(baseURL)
	require.NoError(t, err)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: u, client: &http.Client{Jar: jar}}
}

func (b *browser) open(path string) {
	b.t.Helper()
	u := b.base.ResolveReference(&url.URL{Path: path})
	resp, err := b.client.Get(u.String())
	require.NoError(b.t, err)
	b.load(u, resp)
}

func (b *browser) load(u *url.URL, resp *http.Response) {
	b.t.Helper()
	defer resp.Body.Close()
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	doc, err := html.Parse(resp.Body)
	require.NoError(b.t, err)
	b.doc, b.url = doc, u
}

// typeInto appends text to the control labelled label.
func (b *browser) typeInto(label, text string) {
	b.t.Helper()
	n := b.control(label)
	switch n.DataAtom {
	case atom.Textarea:
		cur := textOf(n)
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: cur + text})
	default:
		setAttr(n, "value", attr(n, "value")+text)
	}
}

// click toggles the checkbox labelled label.
func (b *browser) click(label string) {
	b.t.Helper()
	n := b.control(label)
	require.Equal(b.t, "checkbox", attr(n, "type"), "%q is not a checkbox", label)
	if hasAttr(n, "checked") {
		removeAttr(n, "checked")
	} else {
		n.Attr = append(n.Attr, html.Attribute{Key: "checked"})
	}
}

// press clicks the button whose text is name and loads the response.
func (b *browser) press(name string) {
	b.t.Helper()
	btn := find(b.doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Button && strings.TrimSpace(textOf(n)) == name
	})
	require.NotNil(b.t, btn, "no button %q", name)

	f := btn.Parent
	for f != nil && f.DataAtom != atom.Form {
		f = f.Parent
	}
	require.NotNil(b.t, f, "button %q outside a form", name)

	vals := url.Values{}
	walk(f, func(n *html.Node) {
		nm := attr(n, "name")
		if nm == "" {
			return
		}
		switch n.DataAtom {
		case atom.Input:
			if attr(n, "type") == "checkbox" {
				if hasAttr(n, "checked") {
					v := attr(n, "value")
					if v == "" {
						v = "on"
					}
					vals.Add(nm, v)
				}
				return
			}
			vals.Add(nm, attr(n, "value"))
		case atom.Textarea:
			vals.Add(nm, textOf(n))
		}
	})
	if nm := attr(btn, "name"); nm != "" {
		vals.Add(nm, attr(btn, "value"))
	}

	action, err := url.Parse(attr(f, "action"))
	require.NoError(b.t, err)
	target := b.url.ResolveReference(action)
	resp, err := b.client.PostForm(target.String(), vals)
	require.NoError(b.t, err)
	b.load(target, resp)
}

// control finds the element a <label> with exactly this text points at.
func (b *browser) control(label string) *html.Node {
	b.t.Helper()
	l := find(b.doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Label && strings.TrimSpace(textOf(n)) == label
	})
	require.NotNil(b.t, l, "no label %q", label)
	id := attr(l, "for")
	n := b.byID(id)
	require.NotNil(b.t, n, "label %q points at missing #%s", label, id)
	return n
}

func (b *browser) byID(id string) *html.Node {
	return find(b.doc, func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "id") == id })
}

// text returns the visible text of #id, or "" if absent.
func (b *browser) text(id string) string {
	n := b.byID(id)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(textOf(n))
}

// value returns the current value of the control labelled label.
func (b *browser) value(label string) string {
	n := b.control(label)
	if n.DataAtom == atom.Textarea {
		return textOf(n)
	}
	return attr(n, "value")
}

// page returns all text in <body>.
func (b *browser) page() string {
	body := find(b.doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	require.NotNil(b.t, body)
	return textOf(body)
}

/*──────────────────────────── DOM helpers ─────────────────────────────────*/

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if got := find(c, match); got != nil {
			return got
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

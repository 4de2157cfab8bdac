// internal/view/model.go
//
// Render-ready model of one form session.
//
// Context
//   Model is what both outputs consume: the HTML templates read the
//   unexported-in-JSON presentation fields, while the JSON encoder emits
//   the result object clients script against:
//
//      {formId, fields: {name: {id, errorId, value, errors}},
//       formErrors, submitted, value}
//
//   Element ids are stable (fld-<form>-<field> and …-error) so labels,
//   aria-describedby, and client code can find them.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yanizio/formdesk/internal/form"
)

// Field is one input as rendered.
type Field struct {
	ID      string   `json:"id"`
	ErrorID string   `json:"errorId"`
	Value   string   `json:"value"`
	Errors  []string `json:"errors"`

	Name      string `json:"-"`
	Label     string `json:"-"`
	Kind      string `json:"-"`
	InputType string `json:"-"`
	Required  bool   `json:"-"`
	MaxLength int    `json:"-"`
	Hidden    bool   `json:"-"`
	Checked   bool   `json:"-"`
}

// Entry is one label/value row of the confirmation view.
type Entry struct {
	Label string
	Value string
}

// Model is the render-ready result of one request.
type Model struct {
	FormID     string           `json:"formId"`
	Fields     map[string]Field `json:"fields"`
	FormErrors []string         `json:"formErrors"`
	Submitted  bool             `json:"submitted"`
	Value      form.Data        `json:"value"`

	Path        string  `json:"-"`
	Lang        string  `json:"-"`
	Title       string  `json:"-"`
	SubmitLabel string  `json:"-"`
	ResetLabel  string  `json:"-"`
	ThankYou    string  `json:"-"`
	Lead        string  `json:"-"`
	Token       string  `json:"-"`
	Order       []Field `json:"-"`
	Entries     []Entry `json:"-"`
	Pretty      string  `json:"-"`
}

// FieldID is the DOM id of a field's input element.
func FieldID(formID, name string) string { return "fld-" + formID + "-" + name }

// ErrorID is the DOM id of a field's error container.
func ErrorID(formID, name string) string { return FieldID(formID, name) + "-error" }

// FormErrorID is the DOM id of the form-level error banner.
func FormErrorID(formID string) string { return "form-" + formID + "-errors" }

// FormErrorID returns the banner id for this model.
func (m *Model) FormErrorID() string { return FormErrorID(m.FormID) }

// Build assembles the model for state st of schema s.  token is embedded in
// every rendered form; it may be empty in tests.
func Build(s *form.Schema, st form.ViewState, token string) (*Model, error) {
	m := &Model{
		FormID:      s.ID,
		Fields:      make(map[string]Field, len(s.Fields)),
		FormErrors:  nonNil(st.FormErrors),
		Submitted:   st.Terminal(),
		Path:        s.Path,
		Lang:        s.Lang,
		Title:       s.Title,
		SubmitLabel: s.SubmitLabel,
		ResetLabel:  s.ResetLabel,
		ThankYou:    s.ThankYou,
		Lead:        s.Lead,
		Token:       token,
	}

	for _, spec := range s.Fields {
		f := Field{
			ID:        FieldID(s.ID, spec.Name),
			ErrorID:   ErrorID(s.ID, spec.Name),
			Errors:    nonNil(st.FieldErrors[spec.Name]),
			Name:      spec.Name,
			Label:     spec.Label,
			Kind:      spec.Kind.String(),
			InputType: inputType(spec),
			Required:  spec.Required,
			MaxLength: spec.MaxLength,
			Hidden:    spec.Hidden,
		}
		prior, had := st.Values[spec.Name]
		switch {
		case spec.Kind == form.KindCheckbox:
			f.Checked = prior == "on"
			if f.Checked {
				f.Value = "on"
			}
		case spec.Hidden && !had:
			f.Value = spec.Default
		default:
			f.Value = prior
		}
		m.Fields[spec.Name] = f
		m.Order = append(m.Order, f)
	}

	if !m.Submitted {
		return m, nil
	}

	m.Value = st.Data
	for _, spec := range s.Fields {
		v, ok := st.Data[spec.Name]
		if !ok || spec.Hidden {
			continue
		}
		m.Entries = append(m.Entries, Entry{Label: spec.Label, Value: display(v)})
	}
	pretty, err := indentJSON(st.Data)
	if err != nil {
		return nil, fmt.Errorf("view: encode submitted data: %w", err)
	}
	m.Pretty = pretty
	return m, nil
}

func inputType(f form.FieldSpec) string {
	switch {
	case f.Hidden:
		return "hidden"
	case f.Kind == form.KindEmail:
		return "email"
	case f.Kind == form.KindCheckbox:
		return "checkbox"
	}
	return "text"
}

func display(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// indentJSON mirrors the two-space pretty print shown under the heading.
// Non-ASCII text stays readable.
func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

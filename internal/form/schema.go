// internal/form/schema.go
//
// Formdesk – Forms subsystem: declarative field schema.
//
// Context
//   A Schema lists the fields one form accepts, in the order they are
//   validated and rendered.  Every schema also carries the implicit “intent”
//   discriminant which selects between a real submission and a reset
//   request.  Schemas are plain data.  The parser and the request handler
//   never branch on a schema’s identity, only on its FieldSpecs.
//
// Workflow
//   •  NewSchema checks structural rules (unique names, reserved names, sane
//      limits) and returns an immutable *Schema.
//   •  Callers build schemas once at startup (builtin.go, definition.go) and
//      share them read-only across requests.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Field kinds and formats
// -----------------------------------------------------------------------------

// Kind selects how a raw value is interpreted and rendered.
type Kind int

const (
	KindText     Kind = iota // single-line text input
	KindEmail                // single-line input validated as an address
	KindCheckbox             // “on” when ticked, absent otherwise
	KindLongText             // multi-line textarea
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindEmail:    "email",
	KindCheckbox: "checkbox",
	KindLongText: "longtext",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a definition-file keyword to a Kind.  “textarea” is
// accepted as an alias of “longtext”.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return KindText, nil
	case "email":
		return KindEmail, nil
	case "checkbox":
		return KindCheckbox, nil
	case "longtext", "textarea":
		return KindLongText, nil
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

// Format is an optional content rule applied on top of Kind.
type Format int

const (
	FormatNone Format = iota
	FormatEmail
)

// -----------------------------------------------------------------------------
// Intent
// -----------------------------------------------------------------------------

// Intent is the discriminant carried by the clicked submit button.
type Intent string

const (
	IntentSubmit Intent = "submit"
	IntentReset  Intent = "reset"
)

// Reserved submission keys.  Schemas may not declare fields with these names.
const (
	IntentField = "intent"
	TokenField  = "csrf_token"
)

// -----------------------------------------------------------------------------
// FieldSpec and Schema
// -----------------------------------------------------------------------------

// FieldSpec describes one accepted field.
type FieldSpec struct {
	Name      string // Submission key.  Unique within the schema.
	Label     string // Human-readable label.
	Kind      Kind
	MaxLength int // In Unicode code points.  0 means unset.
	Required  bool
	Format    Format
	Hidden    bool   // Rendered as <input type="hidden">.
	Default   string // Value emitted for hidden fields.
}

// Schema is an ordered list of FieldSpecs plus presentation strings.  Treat
// it as read-only once NewSchema returns.
type Schema struct {
	ID          string // Stable identifier, e.g. “contact”.
	Path        string // Route the form is served on.
	Lang        string // html lang attribute.
	Title       string
	SubmitLabel string
	ResetLabel  string
	ThankYou    string // Confirmation heading.
	Lead        string // Optional line under the heading.
	Fields      []FieldSpec

	index map[string]int
}

// ErrInvalidSchema is wrapped by every structural error NewSchema returns.
var ErrInvalidSchema = errors.New("invalid form schema")

// NewSchema validates s and returns it ready for use.  Missing presentation
// strings fall back to English defaults.
func NewSchema(s Schema) (*Schema, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidSchema)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("%w: form %q has no fields", ErrInvalidSchema, s.ID)
	}

	s.Fields = append([]FieldSpec(nil), s.Fields...)
	s.index = make(map[string]int, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if err := checkField(f); err != nil {
			return nil, fmt.Errorf("%w: form %q: %v", ErrInvalidSchema, s.ID, err)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: form %q: duplicate field name %q", ErrInvalidSchema, s.ID, f.Name)
		}
		s.index[f.Name] = i
	}

	if s.Path == "" {
		s.Path = "/" + s.ID
	}
	if !strings.HasPrefix(s.Path, "/") {
		return nil, fmt.Errorf("%w: form %q: path %q must start with /", ErrInvalidSchema, s.ID, s.Path)
	}
	if s.Lang == "" {
		s.Lang = "en"
	}
	if s.Title == "" {
		s.Title = s.ID
	}
	if s.SubmitLabel == "" {
		s.SubmitLabel = "Submit"
	}
	if s.ResetLabel == "" {
		s.ResetLabel = "Submit Another"
	}
	if s.ThankYou == "" {
		s.ThankYou = "Thank you!"
	}
	return &s, nil
}

// checkField enforces per-field rules and normalises Format for email kinds.
func checkField(f *FieldSpec) error {
	if f.Name == "" {
		return errors.New("field missing name")
	}
	if f.Name == IntentField || f.Name == TokenField {
		return fmt.Errorf("field name %q is reserved", f.Name)
	}
	if _, ok := kindNames[f.Kind]; !ok {
		return fmt.Errorf("field %q: unknown kind %d", f.Name, int(f.Kind))
	}
	if f.MaxLength < 0 {
		return fmt.Errorf("field %q: maxlength cannot be negative", f.Name)
	}
	if f.Kind == KindEmail {
		f.Format = FormatEmail
	}
	if f.Kind == KindCheckbox && (f.MaxLength > 0 || f.Format != FormatNone) {
		return fmt.Errorf("field %q: checkbox cannot carry maxlength or format", f.Name)
	}
	if f.Hidden && f.Kind == KindCheckbox {
		return fmt.Errorf("field %q: checkbox cannot be hidden", f.Name)
	}
	if f.Label == "" {
		f.Label = f.Name
	}
	return nil
}

// Field returns the FieldSpec called name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

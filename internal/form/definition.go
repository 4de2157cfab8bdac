// internal/form/definition.go
//
// Formdesk – Forms subsystem: YAML definition loader and registry.
//
// Context
//   Besides the built-in schemas, operators may declare extra forms in YAML
//   files under `forms.definitions_dir`.  At startup every “*.yaml” (or
//   “*.yml”) file in that tree is parsed, run through NewSchema, and added to
//   a Registry.  After startup the Registry is never mutated, so handlers read
//   it without locking.
//
// Workflow
//   •  fileDef mirrors the YAML layout.  Kind keywords are strings in YAML and
//      converted with ParseKind.
//   •  LoadSchema parses a single file.  LoadDir walks a directory tree.
//   •  NewRegistry rejects duplicate IDs and duplicate paths.
//
// Example
//
//	id: feedback
//	path: /feedback
//	title: Feedback
//	fields:
//	  - name: email
//	    label: Email
//	    kind: email
//	    required: true
//	    maxlength: 100
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// YAML layout
// -----------------------------------------------------------------------------

type fileDef struct {
	ID          string         `yaml:"id"`
	Path        string         `yaml:"path"`
	Lang        string         `yaml:"lang"`
	Title       string         `yaml:"title"`
	SubmitLabel string         `yaml:"submit_label"`
	ResetLabel  string         `yaml:"reset_label"`
	ThankYou    string         `yaml:"thank_you"`
	Lead        string         `yaml:"lead"`
	Fields      []fileFieldDef `yaml:"fields"`
}

type fileFieldDef struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	Kind      string `yaml:"kind"`
	MaxLength int    `yaml:"maxlength"`
	Required  bool   `yaml:"required"`
	Format    string `yaml:"format"`
	Hidden    bool   `yaml:"hidden"`
	Default   string `yaml:"default"`
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseSchema decodes one YAML document into a validated Schema.  src names
// the document in error messages.
func ParseSchema(src string, raw []byte) (*Schema, error) {
	var fd fileDef
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}

	s := Schema{
		ID:          fd.ID,
		Path:        fd.Path,
		Lang:        fd.Lang,
		Title:       fd.Title,
		SubmitLabel: fd.SubmitLabel,
		ResetLabel:  fd.ResetLabel,
		ThankYou:    fd.ThankYou,
		Lead:        fd.Lead,
	}
	for _, ff := range fd.Fields {
		kind, err := ParseKind(ff.Kind)
		if err != nil {
			return nil, fmt.Errorf("form definition %s: field %q: %w", src, ff.Name, err)
		}
		format := FormatNone
		switch strings.ToLower(ff.Format) {
		case "":
		case "email":
			format = FormatEmail
		default:
			return nil, fmt.Errorf("form definition %s: field %q: unknown format %q", src, ff.Name, ff.Format)
		}
		s.Fields = append(s.Fields, FieldSpec{
			Name:      ff.Name,
			Label:     ff.Label,
			Kind:      kind,
			MaxLength: ff.MaxLength,
			Required:  ff.Required,
			Format:    format,
			Hidden:    ff.Hidden,
			Default:   ff.Default,
		})
	}

	out, err := NewSchema(s)
	if err != nil {
		return nil, fmt.Errorf("form definition %s: %w", src, err)
	}
	return out, nil
}

// LoadSchema reads and parses one YAML file.
func LoadSchema(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseSchema(path, raw)
}

// LoadDir walks dir and loads every YAML file in lexical order.  A missing
// directory yields no schemas and no error.
func LoadDir(dir string) ([]*Schema, error) {
	if dir == "" {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Schema, 0, len(paths))
	for _, p := range paths {
		s, err := LoadSchema(p)
		if err != nil {
			return nil, err // fail fast so bad definitions surface at boot.
		}
		out = append(out, s)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry is the process-wide set of schemas.  It is built once and only
// read afterwards.
type Registry struct {
	ordered []*Schema
	byID    map[string]*Schema
}

// NewRegistry indexes schemas by ID.  Duplicate IDs or paths are errors.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Schema, len(schemas))}
	paths := make(map[string]string, len(schemas))
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate form id %q", ErrInvalidSchema, s.ID)
		}
		if other, dup := paths[s.Path]; dup {
			return nil, fmt.Errorf("%w: forms %q and %q share path %q", ErrInvalidSchema, other, s.ID, s.Path)
		}
		r.byID[s.ID] = s
		paths[s.Path] = s.ID
		r.ordered = append(r.ordered, s)
	}
	return r, nil
}

// Get returns the schema with the given ID.
func (r *Registry) Get(id string) (*Schema, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// All returns the schemas in registration order.
func (r *Registry) All() []*Schema {
	return append([]*Schema(nil), r.ordered...)
}

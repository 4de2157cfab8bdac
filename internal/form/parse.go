// internal/form/parse.go
//
// Formdesk – Forms subsystem: submission parser.
//
// Context
//   Parse is the pure half of a request.  It reads the intent, then checks
//   each FieldSpec in declaration order and returns either typed data or a
//   *Failure listing every problem.  It never touches the network, the clock,
//   or global mutable state.
//
// Workflow
//   1.  Intent must be exactly one of “submit” or “reset”.
//   2.  Reset succeeds at once.  Field contents are ignored.
//   3.  Submit runs required, length, format, and checkbox rules.  Errors are
//       accumulated, never short-circuited across fields.
//
// Notes
//   •  Lengths count Unicode code points so Japanese input is measured the
//      way users see it.
//   •  Values are kept verbatim.  No trimming, no escaping; templates escape
//      on output.
//
//------------------------------------------------------------------------------

package form

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Data holds validated values: string for text kinds, bool for checkboxes.
type Data map[string]any

// Result is the outcome of Parse.  Exactly one of Data (success) or Failure
// (failure) is meaningful; OK tells which.
type Result struct {
	Intent  Intent
	Data    Data
	Failure *Failure
}

// OK reports whether the submission passed validation.
func (r Result) OK() bool { return r.Failure.Empty() }

// Err returns the *Failure as an error, or nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return r.Failure
}

// checkboxOn is the value browsers send for a ticked checkbox.
const checkboxOn = "on"

// v is the shared validator instance.  validator.Validate caches struct
// metadata and is safe for concurrent use.
var v = validator.New()

// Parse validates values against s.
func Parse(s *Schema, values url.Values) Result {
	intent, ok := readIntent(values)
	if !ok {
		f := &Failure{}
		f.addForm(ReasonInvalidIntent)
		return Result{Failure: f}
	}
	if intent == IntentReset {
		return Result{Intent: IntentReset, Data: Data{}}
	}

	fail := &Failure{}
	data := make(Data, len(s.Fields))

	for _, f := range s.Fields {
		raw := values.Get(f.Name)

		if f.Kind == KindCheckbox {
			checked := raw == checkboxOn
			if f.Required && !checked {
				fail.addField(f.Name, ReasonUnchecked)
				continue
			}
			data[f.Name] = checked
			continue
		}

		if raw == "" {
			if f.Required {
				fail.addField(f.Name, ReasonRequired)
			}
			continue
		}

		valid := true
		if f.MaxLength > 0 && utf8.RuneCountInString(raw) > f.MaxLength {
			fail.addField(f.Name, ReasonTooLong)
			valid = false
		}
		if f.Format == FormatEmail && !isEmail(raw) {
			fail.addField(f.Name, ReasonInvalidEmail)
			valid = false
		}
		if valid {
			data[f.Name] = raw
		}
	}

	if !fail.Empty() {
		return Result{Intent: IntentSubmit, Failure: fail}
	}
	return Result{Intent: IntentSubmit, Data: data}
}

// readIntent accepts exactly one known intent value.
func readIntent(values url.Values) (Intent, bool) {
	raw, ok := values[IntentField]
	if !ok || len(raw) != 1 {
		return "", false
	}
	switch in := Intent(raw[0]); in {
	case IntentSubmit, IntentReset:
		return in, true
	}
	return "", false
}

// isEmail requires a well-formed address whose domain contains a dot that is
// neither its first nor its last character.
func isEmail(s string) bool {
	if err := v.Var(s, "required,email"); err != nil {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && !strings.HasSuffix(domain, ".")
}

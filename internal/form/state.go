// internal/form/state.go
//
// Formdesk – Forms subsystem: view state.
//
// Context
//   A ViewState is everything the presentation layer needs to draw a form
//   session: either the input form (with prior values and inline errors) or
//   the confirmation view (with the accepted data).  It is rebuilt from
//   scratch on every request and never stored server-side.
//
//   Phase also names the two transient steps of the handler (Validating and
//   Processing) so observers can trace a request through the machine:
//
//	AwaitingInput ─submit→ Validating ─invalid→ AwaitingInput (with errors)
//	                                  ─valid──→ Processing ─→ Submitted
//	any           ─reset─→ Validating ─────────→ AwaitingInput (cleared)
//
//------------------------------------------------------------------------------

package form

import "net/url"

// Phase is a node in the form-session state machine.
type Phase int

const (
	AwaitingInput Phase = iota
	Validating
	Processing
	Submitted
)

func (p Phase) String() string {
	switch p {
	case AwaitingInput:
		return "awaiting_input"
	case Validating:
		return "validating"
	case Processing:
		return "processing"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// ViewState is the renderable state of one form session.
type ViewState struct {
	Phase       Phase
	Values      map[string]string   // prior raw input, ShowForm only
	FieldErrors map[string][]string // ShowForm only
	FormErrors  []string            // ShowForm only
	Data        Data                // ShowConfirmation only
}

// ShowForm builds an AwaitingInput state.  values may be nil for a blank
// form.
func ShowForm(values map[string]string, fieldErrors map[string][]string, formErrors []string) ViewState {
	return ViewState{
		Phase:       AwaitingInput,
		Values:      values,
		FieldErrors: fieldErrors,
		FormErrors:  formErrors,
	}
}

// ShowConfirmation builds the terminal Submitted state.
func ShowConfirmation(data Data) ViewState {
	return ViewState{Phase: Submitted, Data: data}
}

// Terminal reports whether the state is the confirmation view.
func (s ViewState) Terminal() bool { return s.Phase == Submitted }

// HasErrors reports whether any inline or form-level error is attached.
func (s ViewState) HasErrors() bool {
	return len(s.FieldErrors) > 0 || len(s.FormErrors) > 0
}

// priorValues keeps the first submitted value for every schema field so the
// form can be redrawn as the user left it.  Keys outside the schema are
// dropped.
func priorValues(s *Schema, values url.Values) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		if raw, ok := values[f.Name]; ok && len(raw) > 0 {
			out[f.Name] = raw[0]
		}
	}
	return out
}

// internal/form/errors.go
//
// Formdesk – Forms subsystem: error taxonomy.
//
// Context
//   Validation problems are user errors, not system failures.  They are
//   collected into a *Failure so the whole list reaches the template in one
//   round trip.  Callers tell them apart from real faults with
//   IsValidationError, the same way the HTTP layer decides between
//   “re-render” and “log and bail”.
//
//   •  ValidationError – one field, one reason, rendered inline.
//   •  FormError       – form-level banner (bad intent, bad token).
//   •  ProcessingError – the post-validation side effect failed.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
)

// Reason is the user-facing message attached to a validation problem.
type Reason string

const (
	ReasonRequired      Reason = "required"
	ReasonTooLong       Reason = "too long"
	ReasonInvalidEmail  Reason = "invalid email"
	ReasonUnchecked     Reason = "must be checked"
	ReasonInvalidIntent Reason = "invalid intent"
	ReasonBadToken      Reason = "invalid security token"
	ReasonMalformed     Reason = "malformed submission"
)

// ValidationError describes one failed field check.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e ValidationError) Error() string { return e.Field + ": " + string(e.Reason) }

// FormError is a problem with the submission as a whole.
type FormError struct {
	Reason Reason
}

func (e FormError) Error() string { return string(e.Reason) }

// Failure aggregates every problem found in one submission.  Order follows
// schema declaration order for fields and discovery order for form errors.
type Failure struct {
	Fields []ValidationError
	Form   []FormError
}

func (f *Failure) Error() string {
	n := len(f.Fields) + len(f.Form)
	if n == 1 {
		if len(f.Form) == 1 {
			return "form validation failed: " + f.Form[0].Error()
		}
		return "form validation failed: " + f.Fields[0].Error()
	}
	return fmt.Sprintf("form validation failed: %d problems", n)
}

// Empty reports whether no problem was recorded.
func (f *Failure) Empty() bool {
	return f == nil || (len(f.Fields) == 0 && len(f.Form) == 0)
}

func (f *Failure) addField(name string, r Reason) {
	f.Fields = append(f.Fields, ValidationError{Field: name, Reason: r})
}

func (f *Failure) addForm(r Reason) {
	f.Form = append(f.Form, FormError{Reason: r})
}

// FieldErrors groups messages by field name.  Several messages per field are
// kept in the order they were found.
func (f *Failure) FieldErrors() map[string][]string {
	if f.Empty() || len(f.Fields) == 0 {
		return nil
	}
	out := make(map[string][]string, len(f.Fields))
	for _, e := range f.Fields {
		out[e.Field] = append(out[e.Field], string(e.Reason))
	}
	return out
}

// FormErrors returns the form-level messages.
func (f *Failure) FormErrors() []string {
	if f.Empty() || len(f.Form) == 0 {
		return nil
	}
	out := make([]string, len(f.Form))
	for i, e := range f.Form {
		out[i] = string(e.Reason)
	}
	return out
}

// IsValidationError reports whether err came from a failed Parse.
func IsValidationError(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// ProcessingError wraps a failure of the post-validation side effect.
type ProcessingError struct {
	Form string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process form %s: %v", e.Form, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// ErrAbandoned is returned when the caller's context ends while a valid
// submission is still being processed.
var ErrAbandoned = errors.New("submission abandoned")

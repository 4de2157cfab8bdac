// internal/form/handler.go
//
// Formdesk – Forms subsystem: request handler.
//
// Context
//   The Handler drives one request through the form-session state machine
//   (see state.go).  It is the only place where validation meets the side
//   effect, and it guarantees their order: parse, then process, then build
//   the success state.  Validation failures are ordinary results, not
//   errors.  Only abandonment and processor faults come back as error.
//
// Workflow
//   •  Transition(prior, submission) is the explicit state function.  It can
//      be called from an HTTP handler, a Session, or a test.
//   •  Handle is the stateless entry point used per HTTP request.
//   •  Observers see every phase change; metrics hang off this hook.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"fmt"
	"net/url"
)

// ReasonProcessing is the banner shown when the side effect fails.
const ReasonProcessing Reason = "could not process submission"

// Observer is called on every phase change of a form session.
type Observer func(formID string, from, to Phase)

// Option configures a Handler.
type Option func(*Handler)

// WithObserver adds an Observer.
func WithObserver(o Observer) Option {
	return func(h *Handler) {
		if o != nil {
			h.observers = append(h.observers, o)
		}
	}
}

// Handler runs submissions through Parse and the Processor.  It holds no
// per-request state and is safe for concurrent use.
type Handler struct {
	proc      Processor
	observers []Observer
}

// NewHandler returns a Handler using p for accepted submissions.  A nil p
// means accepted submissions have no side effect.
func NewHandler(p Processor, opts ...Option) *Handler {
	h := &Handler{proc: p}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Handle processes one stateless request.  terminal is true when the result
// is the confirmation view.
func (h *Handler) Handle(ctx context.Context, s *Schema, values url.Values) (state ViewState, terminal bool, err error) {
	state, err = h.Transition(ctx, ShowForm(nil, nil, nil), s, values)
	return state, state.Terminal(), err
}

// Transition computes the state that follows prior when values are
// submitted.  The machine does not depend on prior beyond reporting the
// “from” phase: every submission is validated on its own merits and reset
// clears from any state.
//
// On abandonment the returned state is the zero value and err wraps
// ErrAbandoned.  On a processor fault the returned state redisplays the
// form with a banner and err is a *ProcessingError.
func (h *Handler) Transition(ctx context.Context, prior ViewState, s *Schema, values url.Values) (ViewState, error) {
	h.emit(s.ID, prior.Phase, Validating)
	res := Parse(s, values)

	switch {
	case !res.OK():
		h.emit(s.ID, Validating, AwaitingInput)
		return ShowForm(priorValues(s, values), res.Failure.FieldErrors(), res.Failure.FormErrors()), nil

	case res.Intent == IntentReset:
		h.emit(s.ID, Validating, AwaitingInput)
		return ShowForm(nil, nil, nil), nil
	}

	h.emit(s.ID, Validating, Processing)
	if h.proc != nil {
		if err := h.proc.Process(ctx, s.ID, res.Data); err != nil {
			// Only the caller's own ctx ending counts as abandonment.  A
			// processor's internal timeout is an ordinary failure.
			if ctx.Err() != nil {
				return ViewState{}, fmt.Errorf("%w: %w", ErrAbandoned, err)
			}
			h.emit(s.ID, Processing, AwaitingInput)
			return ShowForm(priorValues(s, values), nil, []string{string(ReasonProcessing)}),
				&ProcessingError{Form: s.ID, Err: err}
		}
	}
	h.emit(s.ID, Processing, Submitted)
	return ShowConfirmation(res.Data), nil
}

// Reject builds the redisplay state for a submission refused before
// parsing, e.g. a bad CSRF token or an unreadable body.
func Reject(s *Schema, values url.Values, reasons ...Reason) ViewState {
	msgs := make([]string, len(reasons))
	for i, r := range reasons {
		msgs[i] = string(r)
	}
	return ShowForm(priorValues(s, values), nil, msgs)
}

func (h *Handler) emit(formID string, from, to Phase) {
	for _, o := range h.observers {
		o(formID, from, to)
	}
}

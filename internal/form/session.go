// internal/form/session.go
//
// Formdesk – Forms subsystem: in-process form session.
//
// Context
//   The HTTP layer is stateless; the browser holds the session.  Tools and
//   tests that drive a form without a browser use Session instead: it keeps
//   the latest ViewState and feeds it back into Handler.Transition as the
//   prior state.  One Session models one fetcher key, so calls are
//   serialised.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// Session is one form session.  The zero value is unusable; construct with
// NewSession.
type Session struct {
	h      *Handler
	schema *Schema

	mu    sync.Mutex
	state ViewState
}

// NewSession starts a blank session for schema s.
func NewSession(h *Handler, s *Schema) *Session {
	return &Session{h: h, schema: s, state: ShowForm(nil, nil, nil)}
}

// State returns the current view state.
func (ss *Session) State() ViewState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.state
}

// Submit posts values and stores the resulting state.  When the submission
// is abandoned the previous state is kept.
func (ss *Session) Submit(ctx context.Context, values url.Values) (ViewState, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	next, err := ss.h.Transition(ctx, ss.state, ss.schema, values)
	if errors.Is(err, ErrAbandoned) {
		return ss.state, err
	}
	ss.state = next
	return next, err
}

// Reset clears the session back to a blank form.
func (ss *Session) Reset(ctx context.Context) (ViewState, error) {
	return ss.Submit(ctx, url.Values{IntentField: {string(IntentReset)}})
}

// components/forms/forms.go
//
// Formdesk forms component – one GET/POST route pair per schema.
//
// Context
//   GET renders a blank form.  POST reads the body, checks the CSRF token,
//   runs the form handler, and renders whatever state comes back.  Every
//   outcome the user can act on (errors, reset, confirmation) is a 200 so
//   the browser simply redraws.  Clients asking for application/json get
//   the result object instead of HTML.
//
//------------------------------------------------------------------------------

package forms

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/formdesk/internal/component"
	"github.com/yanizio/formdesk/internal/form"
	"github.com/yanizio/formdesk/internal/logger"
	"github.com/yanizio/formdesk/internal/metrics"
	"github.com/yanizio/formdesk/internal/requestinfo"
	"github.com/yanizio/formdesk/internal/view"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// TokenHeader carries a fresh CSRF token on every response so JSON clients
// can post without scraping HTML.
const TokenHeader = "X-CSRF-Token"

// DefaultMaxBodyBytes caps POST bodies when Deps leaves it unset.
const DefaultMaxBodyBytes int64 = 1 << 20

// Deps are the collaborators the component needs.  Signer may be nil to
// disable CSRF checks.
type Deps struct {
	Forms        *form.Registry
	Handler      *form.Handler
	Renderer     *view.Renderer
	Signer       *form.Signer
	Metrics      *metrics.Forms
	MaxBodyBytes int64
}

// Component serves every schema in Deps.Forms.
type Component struct {
	d Deps
}

// New returns the component.
func New(d Deps) *Component {
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Component{d: d}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "forms" }

// Routes attaches GET and POST for each schema path.
func (c *Component) Routes(r chi.Router) {
	for _, s := range c.d.Forms.All() {
		r.Get(s.Path, c.show(s))
		r.Post(s.Path, c.submit(s))
	}
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) show(s *form.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, r, s, form.ShowForm(nil, nil, nil))
	}
}

func (c *Component) submit(s *form.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx).With("form", s.ID)
		if ri := requestinfo.FromContext(ctx); ri != nil {
			log = log.With(ri.LogFields()...)
		}

		values, err := c.readBody(w, r)
		if err != nil {
			log.Infow("form submission rejected", "reason", form.ReasonMalformed, "err", err)
			c.d.Metrics.Submission(s.ID, metrics.OutcomeInvalid)
			c.write(w, r, s, form.Reject(s, nil, form.ReasonMalformed))
			return
		}

		if c.d.Signer != nil && !c.d.Signer.Verify(values.Get(form.TokenField)) {
			log.Infow("form submission rejected", "reason", form.ReasonBadToken)
			c.d.Metrics.Submission(s.ID, metrics.OutcomeInvalid)
			c.write(w, r, s, form.Reject(s, values, form.ReasonBadToken))
			return
		}

		state, terminal, err := c.d.Handler.Handle(ctx, s, values)
		var perr *form.ProcessingError
		switch {
		case errors.Is(err, form.ErrAbandoned):
			log.Infow("submission abandoned", "err", err)
			c.d.Metrics.Submission(s.ID, metrics.OutcomeAbandoned)
			return

		case errors.As(err, &perr):
			log.Errorw("form processing failed", "err", perr)
			c.d.Metrics.Submission(s.ID, metrics.OutcomeFailed)

		case err != nil:
			log.Errorw("form handler failed", "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return

		case terminal:
			log.Infow("form submission accepted", "fields", len(state.Data))
			c.d.Metrics.Submission(s.ID, metrics.OutcomeAccepted)

		case state.HasErrors():
			logRejected(log, state)
			c.d.Metrics.Submission(s.ID, metrics.OutcomeInvalid)
			c.d.Metrics.FieldErrors(s.ID, state.FieldErrors)

		default:
			log.Infow("form reset")
			c.d.Metrics.Submission(s.ID, metrics.OutcomeReset)
		}

		c.write(w, r, s, state)
	}
}

// readBody parses URL-encoded and multipart bodies up to MaxBodyBytes.
func (c *Component) readBody(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, c.d.MaxBodyBytes)
	if err := r.ParseMultipartForm(c.d.MaxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return r.PostForm, nil
}

// write renders st as HTML or JSON with a fresh CSRF token.
func (c *Component) write(w http.ResponseWriter, r *http.Request, s *form.Schema, st form.ViewState) {
	log := logger.FromContext(r.Context())

	var token string
	if c.d.Signer != nil {
		tok, err := c.d.Signer.Generate()
		if err != nil {
			log.Errorw("csrf token generation failed", "form", s.ID, "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		token = tok
	}

	m, err := view.Build(s, st, token)
	if err != nil {
		log.Errorw("view build failed", "form", s.ID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	contentType := "text/html; charset=utf-8"
	if wantsJSON(r) {
		contentType = "application/json; charset=utf-8"
		err = c.d.Renderer.JSON(&buf, m)
	} else {
		err = c.d.Renderer.HTML(&buf, m)
	}
	if err != nil {
		log.Errorw("render failed", "form", s.ID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if token != "" {
		w.Header().Set(TokenHeader, token)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func logRejected(log *zap.SugaredLogger, st form.ViewState) {
	fields := make([]string, 0, len(st.FieldErrors))
	for name := range st.FieldErrors {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	log.Infow("form submission rejected", "fields", fields, "form_errors", st.FormErrors)
}

// components/forms/forms_test.go
//
// End-to-end tests for the forms component.
//
// Context
// -------
// Each test starts an httptest server with the built-in schemas, then drives
// it through the simulated browser in browser_test.go: open a page, type
// into labelled fields, press a button, and read the redrawn page.  Raw
// HTTP requests cover what a browser would not send (missing tokens, JSON,
// multipart, oversized, or cancelled bodies).
//
// Notes
// -----
// • Metrics use a fresh registry per fixture so counts start at zero.
// • Oxford commas, two spaces after periods.

package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/formdesk/internal/form"
	"github.com/yanizio/formdesk/internal/message"
	"github.com/yanizio/formdesk/internal/metrics"
	"github.com/yanizio/formdesk/internal/view"
)

type fixture struct {
	srv     *httptest.Server
	router  http.Handler
	metrics *metrics.Forms
}

func newFixture(t *testing.T, delay time.Duration, maxBody int64) *fixture {
	t.Helper()
	return newFixtureWith(t, form.NewDelayProcessor(delay, message.NewLogDispatcher(zap.NewNop().Sugar())), maxBody)
}

// newFixtureWith serves the built-in forms with proc as the side effect.
func newFixtureWith(t *testing.T, proc form.Processor, maxBody int64) *fixture {
	t.Helper()

	reg, err := form.NewRegistry(form.Builtin()...)
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	h := form.NewHandler(m.Instrument(proc), form.WithObserver(m.Observer()))
	rnd, err := view.New()
	require.NoError(t, err)
	signer, err := form.NewSigner(nil, 0)
	require.NoError(t, err)

	c := New(Deps{
		Forms:        reg,
		Handler:      h,
		Renderer:     rnd,
		Signer:       signer,
		Metrics:      m,
		MaxBodyBytes: maxBody,
	})
	r := chi.NewRouter()
	c.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, router: r, metrics: m}
}

func (f *fixture) count(formID, outcome string) float64 {
	return testutil.ToFloat64(f.metrics.SubmissionsTotal.WithLabelValues(formID, outcome))
}

func TestSignupAccepted(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond, 0)
	b := newBrowser(t, f.srv.URL)

	b.open("/")
	b.typeInto("Email", "coji@techtalk.jp")
	b.typeInto("Name", "Coji")
	b.press("Submit")

	page := b.page()
	require.Contains(t, page, "Thank you")
	require.Contains(t, page, "coji@techtalk.jp")
	require.Contains(t, page, "Coji")
	require.Equal(t, 1.0, f.count("signup", metrics.OutcomeAccepted))
}

func TestSignupRequiredField(t *testing.T) {
	f := newFixture(t, 0, 0)
	b := newBrowser(t, f.srv.URL)

	b.open("/")
	b.typeInto("Email", "coji@techtalk.jp")
	b.press("Submit")

	require.Equal(t, "required", b.text(view.ErrorID("signup", "name")))
	require.Equal(t, "", b.text(view.ErrorID("signup", "email")))
	require.Equal(t, "coji@techtalk.jp", b.value("Email"), "prior input must survive the redisplay")
	require.Equal(t, 1.0, f.count("signup", metrics.OutcomeInvalid))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FieldErrorsTotal.WithLabelValues("signup", "name", "required")))
}

func TestContactJapanese(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond, 0)
	b := newBrowser(t, f.srv.URL)

	b.open("/api/contact")
	b.typeInto("お名前", "溝口浩二")
	b.typeInto("会社名", "株式会社TechTalk")
	b.typeInto("電話番号", "09012345678")
	b.typeInto("メール", "coji@techtalk.jp")
	b.typeInto("メッセージ", "こんにち\nは")
	b.click("privacy")
	b.press("Let's talk")

	page := b.page()
	require.Contains(t, page, "お問い合わせありがとうございます")
	require.Contains(t, page, "以下のメッセージを受付けました。")
	for _, v := range []string{"溝口浩二", "株式会社TechTalk", "09012345678", "coji@techtalk.jp", "こんにち\nは"} {
		require.Contains(t, page, v)
	}
}

func TestContactPrivacyUnchecked(t *testing.T) {
	f := newFixture(t, 0, 0)
	b := newBrowser(t, f.srv.URL)

	b.open("/api/contact")
	b.typeInto("お名前", "溝口浩二")
	b.typeInto("メール", "coji@techtalk.jp")
	b.typeInto("メッセージ", "hello")
	b.press("Let's talk")

	require.Equal(t, "must be checked", b.text(view.ErrorID("contact", "privacyPolicy")))
	require.Equal(t, "溝口浩二", b.value("お名前"))
	require.Equal(t, "hello", b.value("メッセージ"))
	require.NotContains(t, b.page(), "お問い合わせありがとうございます")
}

func TestResetAfterConfirmation(t *testing.T) {
	f := newFixture(t, 0, 0)
	b := newBrowser(t, f.srv.URL)

	b.open("/register")
	b.typeInto("Name", "Coji")
	b.typeInto("Email", "coji@techtalk.jp")
	b.press("Submit")
	require.Contains(t, b.page(), "Thank you!")
	require.Contains(t, b.page(), `"secret": "formdesk"`)

	b.press("Submit Another")
	require.Equal(t, "", b.value("Name"))
	require.Equal(t, "", b.value("Email"))
	require.Equal(t, 1.0, f.count("register", metrics.OutcomeReset))
}

func TestIdenticalSubmissionsAreIndependent(t *testing.T) {
	f := newFixture(t, 0, 0)
	for i := 0; i < 2; i++ {
		b := newBrowser(t, f.srv.URL)
		b.open("/")
		b.typeInto("Email", "coji@techtalk.jp")
		b.typeInto("Name", "Coji")
		b.press("Submit")
		require.Contains(t, b.page(), "Thank you!")
	}
	require.Equal(t, 2.0, f.count("signup", metrics.OutcomeAccepted))
}

func TestProcessingFailureShowsBanner(t *testing.T) {
	f := newFixtureWith(t, form.ProcessorFunc(func(context.Context, string, form.Data) error {
		return fmt.Errorf("smtp dial: %w", context.DeadlineExceeded)
	}), 0)
	b := newBrowser(t, f.srv.URL)

	b.open("/")
	b.typeInto("Email", "coji@techtalk.jp")
	b.typeInto("Name", "Coji")
	b.press("Submit")

	require.Equal(t, "could not process submission", b.text(view.FormErrorID("signup")))
	require.Equal(t, "coji@techtalk.jp", b.value("Email"), "prior input must survive the failure")
	require.Equal(t, "Coji", b.value("Name"))
	require.NotContains(t, b.page(), "Thank you!")
	require.Equal(t, 1.0, f.count("signup", metrics.OutcomeFailed))
	require.Equal(t, 0.0, f.count("signup", metrics.OutcomeAbandoned))
}

func TestMissingTokenIsFormError(t *testing.T) {
	f := newFixture(t, 0, 0)
	resp, err := http.PostForm(f.srv.URL+"/", url.Values{
		"intent": {"submit"},
		"email":  {"coji@techtalk.jp"},
		"name":   {"Coji"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := &browser{t: t}
	doc.load(resp.Request.URL, resp)
	require.Equal(t, "invalid security token", doc.text(view.FormErrorID("signup")))
	require.Equal(t, 0.0, f.count("signup", metrics.OutcomeAccepted))
}

func TestJSONResult(t *testing.T) {
	f := newFixture(t, 0, 0)

	get, err := http.NewRequest(http.MethodGet, f.srv.URL+"/", nil)
	require.NoError(t, err)
	get.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(get)
	require.NoError(t, err)
	resp.Body.Close()
	token := resp.Header.Get(TokenHeader)
	require.NotEmpty(t, token)

	body := url.Values{
		"csrf_token": {token},
		"intent":     {"submit"},
		"email":      {"coji@techtalk.jp"},
		"name":       {"Coji"},
	}
	post, err := http.NewRequest(http.MethodPost, f.srv.URL+"/", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	post.Header.Set("Accept", "application/json")
	resp, err = http.DefaultClient.Do(post)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var got struct {
		FormID string `json:"formId"`
		Fields map[string]struct {
			ID      string   `json:"id"`
			ErrorID string   `json:"errorId"`
			Value   string   `json:"value"`
			Errors  []string `json:"errors"`
		} `json:"fields"`
		FormErrors []string       `json:"formErrors"`
		Submitted  bool           `json:"submitted"`
		Value      map[string]any `json:"value"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	require.Equal(t, "signup", got.FormID)
	require.True(t, got.Submitted)
	require.Empty(t, got.FormErrors)
	require.Equal(t, map[string]any{"email": "coji@techtalk.jp", "name": "Coji"}, got.Value)
	require.Equal(t, "fld-signup-email", got.Fields["email"].ID)
	require.Equal(t, "fld-signup-email-error", got.Fields["email"].ErrorID)
}

func TestMultipartBody(t *testing.T) {
	f := newFixture(t, 0, 0)
	token := mustToken(t, f)

	var sb strings.Builder
	const boundary = "formdeskboundary"
	for _, kv := range [][2]string{
		{"csrf_token", token},
		{"intent", "submit"},
		{"email", "coji@techtalk.jp"},
		{"name", "Coji"},
	} {
		sb.WriteString("--" + boundary + "\r\n")
		sb.WriteString(`Content-Disposition: form-data; name="` + kv[0] + "\"\r\n\r\n")
		sb.WriteString(kv[1] + "\r\n")
	}
	sb.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(sb.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Thank you!")
}

func TestOversizedBodyIsMalformed(t *testing.T) {
	f := newFixture(t, 0, 64)

	body := url.Values{"intent": {"submit"}, "name": {strings.Repeat("x", 512)}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "malformed submission")
}

func TestAbandonedRequestWritesNothing(t *testing.T) {
	f := newFixture(t, time.Hour, 0)
	token := mustToken(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	body := url.Values{
		"csrf_token": {token},
		"intent":     {"submit"},
		"email":      {"coji@techtalk.jp"},
		"name":       {"Coji"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		f.router.ServeHTTP(rec, req)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after cancellation")
	}
	require.Equal(t, 0, rec.Body.Len())
	require.Equal(t, 1.0, f.count("signup", metrics.OutcomeAbandoned))
}

func mustToken(t *testing.T, f *fixture) string {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	tok := rec.Header().Get(TokenHeader)
	require.NotEmpty(t, tok)
	return tok
}

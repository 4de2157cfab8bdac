package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareAttachesInfo(t *testing.T) {
	var got *RequestInfo
	h := NewEnricher(nil).Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	req.Header.Set("Accept-Language", "ja-JP;q=0.9, en;q=0.8")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("no RequestInfo in context")
	}
	if !got.UA.IsBot {
		t.Error("want bot flag for Googlebot")
	}
	if got.PrimaryLang != "ja-jp" {
		t.Errorf("PrimaryLang = %q", got.PrimaryLang)
	}
	if got.Geo.IP.String() != "203.0.113.9" {
		t.Errorf("IP = %v", got.Geo.IP)
	}
	if got.Geo.CountryISO != "" {
		t.Errorf("CountryISO = %q without a database", got.Geo.CountryISO)
	}
}

func TestOpenGeoEmptyPath(t *testing.T) {
	r, err := OpenGeo("")
	if r != nil || err != nil {
		t.Fatalf("OpenGeo(\"\") = %v, %v", r, err)
	}
}

func TestLogFieldsNil(t *testing.T) {
	var ri *RequestInfo
	if ri.LogFields() != nil {
		t.Error("nil RequestInfo must yield no fields")
	}
}

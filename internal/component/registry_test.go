package component

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stub struct {
	name, path string
}

func (s stub) Name() string { return s.name }

func (s stub) Routes(r chi.Router) {
	r.Get(s.path, func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(s.name)) })
}

func TestMountAllSharesRoot(t *testing.T) {
	g := NewRegistry()
	for _, s := range []stub{{"b", "/b"}, {"a", "/"}} {
		if err := g.Register(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Register(stub{"a", "/dup"}); err == nil {
		t.Error("duplicate name must fail")
	}

	if all := g.All(); len(all) != 2 || all[0].Name() != "a" {
		t.Errorf("All() not sorted: %v", all)
	}

	r := chi.NewRouter()
	g.MountAll(r)
	for path, want := range map[string]string{"/": "a", "/b": "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Body.String() != want {
			t.Errorf("GET %s = %q, want %q", path, rec.Body.String(), want)
		}
	}
}

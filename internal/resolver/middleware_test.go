package resolver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/yanizio/adept-locale/internal/locale"
)

func serve(t *testing.T, target string) (*httptest.ResponseRecorder, locale.Code) {
	t.Helper()
	var got locale.Code
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := FromContext(r.Context())
		if !ok {
			t.Fatal("resolver missing from context")
		}
		got, _ = res.ResolveLocale(r.Context(), false)
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Middleware(newStore(t), nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec, got
}

func TestMiddleware_ValidParam(t *testing.T) {
	rec, got := serve(t, "http://a.com/page?locale=cs-CZ")
	if rec.Code != http.StatusOK || got != "cs" {
		t.Fatalf("code=%d locale=%q", rec.Code, got)
	}
}

func TestMiddleware_HostLocale(t *testing.T) {
	rec, got := serve(t, "http://www.b.com/")
	if rec.Code != http.StatusOK || got != "cs" {
		t.Fatalf("code=%d locale=%q", rec.Code, got)
	}
}

func TestMiddleware_InvalidParamRedirects(t *testing.T) {
	rec, _ := serve(t, "http://a.com/list?locale=xx9&page=2")
	if rec.Code != http.StatusFound {
		t.Fatalf("code = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/list?page=2" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestMiddleware_InvalidParamAfterResponseStarted(t *testing.T) {
	var got locale.Code
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, _ := FromContext(r.Context())
		got, _ = res.ResolveLocale(r.Context(), false)
	})
	h := Middleware(newStore(t), nil)(next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://a.com/?locale=xx9", nil)
	ww := middleware.NewWrapResponseWriter(rec, req.ProtoMajor)
	ww.WriteHeader(http.StatusAccepted)

	h.ServeHTTP(ww, req)

	if rec.Code != http.StatusAccepted || rec.Header().Get("Location") != "" {
		t.Fatalf("redirect issued after response started: code=%d", rec.Code)
	}
	if got != "en" {
		t.Fatalf("resolution should fall back to host locale, got %q", got)
	}
}

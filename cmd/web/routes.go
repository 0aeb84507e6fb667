// cmd/web/routes.go
//
// Router assembly.
//
// Middleware order
// ----------------
//
//	RequestID → RealIP → access log → Recoverer
//	  /healthz, /metrics               (never redirected or protected)
//	  /admin/localization/*            (bearer token, only when configured)
//	  site routes:
//	    resolver.Middleware → ForceHTTPS → Protected → Headers → handler
//
// The access log wraps the writer in chi's WrapResponseWriter before the
// resolver runs, so a redirect for a malformed `locale` parameter is only
// issued while nothing has been written.  ForceHTTPS and Protected read the
// snapshot through the request resolver, so a request loads it once.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/adept-locale/internal/locale"
	"github.com/yanizio/adept-locale/internal/middleware"
	"github.com/yanizio/adept-locale/internal/resolver"
	"github.com/yanizio/adept-locale/internal/site"
	"github.com/yanizio/adept-locale/internal/snapshot"
	"github.com/yanizio/adept-locale/internal/translation"
)

// snapshotStore is what the router needs from *snapshot.Store.
type snapshotStore interface {
	Get(ctx context.Context) (*snapshot.Snapshot, error)
	Invalidate(ctx context.Context) error
	Rebuild(ctx context.Context) (*snapshot.Snapshot, error)
}

type routerDeps struct {
	Store      snapshotStore
	Repo       middleware.PasswordStore
	Hasher     site.Hasher
	ForceHTTPS bool
	AdminToken string
	Log        *zap.Logger
}

// maxTranslateBody caps POST /translate payloads.
const maxTranslateBody = 64 << 10

func newRouter(d routerDeps) http.Handler {
	if d.Log == nil {
		d.Log = zap.L()
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(d.Log))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	if d.AdminToken != "" {
		r.Route("/admin/localization", func(r chi.Router) {
			r.Use(bearer(d.AdminToken))
			r.Get("/snapshot", adminSnapshot(d.Store))
			r.Post("/invalidate", adminInvalidate(d.Store))
			r.Post("/rebuild", adminRebuild(d.Store))
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(resolver.Middleware(d.Store, d.Log))
		if d.ForceHTTPS {
			r.Use(middleware.ForceHTTPS(d.Store))
		}
		r.Use(middleware.Protected(d.Store, d.Repo, d.Hasher))
		r.Use(middleware.Headers)

		r.Get("/locale", localeInfo)
		r.Post("/translate", translate)
	})
	return r
}

//
// ── site handlers ───────────────────────────────────────────────────────
//

type localeView struct {
	Locale      locale.Code                   `json:"locale"`
	Environment site.Environment              `json:"environment"`
	Default     locale.Code                   `json:"default"`
	Available   []locale.Code                 `json:"available"`
	Fallbacks   map[locale.Code][]locale.Code `json:"fallbacks"`
	SiteName    *string                       `json:"siteName,omitempty"`
	Alternates  map[locale.Code]string        `json:"alternates,omitempty"`
}

// localeInfo describes how the current request resolved.
func localeInfo(w http.ResponseWriter, r *http.Request) {
	res, ok := resolver.FromContext(r.Context())
	if !ok {
		http.Error(w, "resolver unavailable", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	code, err := res.ResolveLocale(ctx, false)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	env, err := res.Environment(ctx)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	snap, err := res.Snapshot(ctx)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	view := localeView{
		Locale:      code,
		Environment: env,
		Default:     snap.DefaultLocale(),
		Available:   snap.AvailableLocales(),
		Fallbacks:   snap.FallbackMap(),
		SiteName:    snap.SiteName(code),
		Alternates:  map[locale.Code]string{},
	}
	for _, c := range view.Available {
		if u, ok := snap.URL(env, c); ok {
			view.Alternates[c] = u
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// translate reads a stored translatable column from the body and returns
// the text for the request locale.
func translate(w http.ResponseWriter, r *http.Request) {
	res, ok := resolver.FromContext(r.Context())
	if !ok {
		http.Error(w, "resolver unavailable", http.StatusInternalServerError)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTranslateBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	src := res.AsSource(r.Context())
	v, err := translation.Parse(string(body), src)
	if err != nil {
		if errors.Is(err, translation.ErrDecode) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeResolveError(w, err)
		return
	}
	text, err := v.Get(src)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	b := &resolver.Bridge{Resolver: res}
	writeJSON(w, http.StatusOK, map[string]any{
		"locale": b.Resolve(r.Context()),
		"text":   text,
	})
}

func writeResolveError(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable
	if errors.Is(err, resolver.ErrResolutionFailed) || errors.Is(err, translation.ErrNoLocale) {
		status = http.StatusNotFound
	}
	zap.L().Warn("locale resolution failed", zap.Error(err))
	http.Error(w, err.Error(), status)
}

//
// ── admin handlers ──────────────────────────────────────────────────────
//

func adminSnapshot(store snapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Get(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func adminInvalidate(store snapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Invalidate(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminRebuild(store snapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Rebuild(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"builtAt":  snap.BuiltAt(),
			"warnings": snap.Warnings(),
		})
	}
}

// bearer rejects requests without "Authorization: Bearer <token>".
func bearer(token string) func(http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get("Authorization")))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

//
// ── helpers ─────────────────────────────────────────────────────────────
//

// accessLog writes one zap line per request.
func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internal/middleware/protected.go
//
// Password gate for protected domains.
//
// Workflow
// --------
//  1. Snapshot says the host is not protected → pass through.
//  2. Read the HTTP Basic password (the user name is ignored).
//  3. Load the domain row and VerifyPassword.
//  4. Mismatch or no stored hash → 401 with a WWW-Authenticate challenge.
//  5. Match with UpgradeRecommended → Rehash and persist the new hash.
//     A failed upgrade is logged; the request is still allowed.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/adept-locale/internal/metrics"
	"github.com/yanizio/adept-locale/internal/resolver"
	"github.com/yanizio/adept-locale/internal/site"
)

// PasswordStore is the slice of site.Repository the gate needs.
type PasswordStore interface {
	DomainByHost(ctx context.Context, host string) (*site.Domain, error)
	UpdateProtectedPasswordHash(ctx context.Context, id uint64, hash string) error
}

// Realm is sent in the Basic challenge.
const Realm = "Protected site"

// Protected requires the domain password on hosts flagged as protected.
func Protected(store SnapshotSource, repo PasswordStore, hasher site.Hasher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			host := resolver.NormalizeHost(r.Host)

			snap, err := requestSnapshot(r, store)
			if err != nil {
				metrics.ProtectedAuthTotal.WithLabelValues("error").Inc()
				zap.L().Error("protected gate: snapshot", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			if !snap.Protected(host) {
				next.ServeHTTP(w, r)
				return
			}

			_, plain, ok := r.BasicAuth()
			if !ok {
				challenge(w)
				return
			}

			d, err := repo.DomainByHost(ctx, host)
			if err != nil {
				metrics.ProtectedAuthTotal.WithLabelValues("error").Inc()
				zap.L().Error("protected gate: domain lookup", zap.String("host", host), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			v := d.VerifyPassword(hasher, plain)
			if !v.OK {
				metrics.ProtectedAuthTotal.WithLabelValues("denied").Inc()
				zap.L().Info("protected gate: denied", zap.String("host", host))
				challenge(w)
				return
			}

			if v.UpgradeRecommended {
				if err := d.Rehash(hasher, plain); err != nil {
					zap.L().Warn("protected gate: rehash", zap.String("host", host), zap.Error(err))
				} else if err := repo.UpdateProtectedPasswordHash(ctx, d.ID, *d.ProtectedPasswordHash); err != nil {
					zap.L().Warn("protected gate: persist rehash", zap.String("host", host), zap.Error(err))
				} else {
					metrics.ProtectedAuthTotal.WithLabelValues("upgraded").Inc()
				}
			}
			metrics.ProtectedAuthTotal.WithLabelValues("granted").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

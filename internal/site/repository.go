// internal/site/repository.go
//
// Localization table query helpers.
//
// Context
// -------
// The snapshot builder needs two bulk reads:
//
//   - `ListDomains`         every domain joined with its locale code.
//   - `ListActiveLocales`   active locales ordered by position.
//
// The protected-domain gate needs `DomainByHost` and
// `UpdateProtectedPasswordHash`.  `localectl locale` uses `LocaleByCode`
// and `DomainsByLocale`.
//
// Missing tables surface as ErrTablesMissing so callers can tell an
// unprovisioned database from an empty one.  Empty results are not errors
// here; the snapshot builder decides what an empty set means.
//
// Notes
// -----
//   - Column lists match the `db:` tags in Domain and Locale; update both
//     together.
//   - Bulk reads carry an explicit ORDER BY so snapshots are deterministic.
package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept-locale/internal/locale"
)

// Table names.
const (
	DomainTable = "localization_domain"
	LocaleTable = "localization_locale"
)

const domainColumns = `
        d.id, d.domain, d.https, d.is_www, d.locale_id, l.locale AS locale_code,
        d.environment, d.is_default, d.is_protected, d.protected_password,
        d.inserted_date, d.updated_date`

const localeColumns = `
        id, locale, active, is_default, position, inserted_date,
        title_suffix, title_separator, title_format, site_name`

// Reader is the read contract consumed by the snapshot builder.
type Reader interface {
	ListDomains(ctx context.Context) ([]Domain, error)
	ListActiveLocales(ctx context.Context) ([]Locale, error)
}

// Repository reads and updates the localization tables.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps a control-plane pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListDomains returns every domain with its joined locale code, ordered by id.
func (r *Repository) ListDomains(ctx context.Context) ([]Domain, error) {
	q := `SELECT ` + domainColumns + `
        FROM   ` + DomainTable + ` d
        LEFT JOIN ` + LocaleTable + ` l ON l.id = d.locale_id
        ORDER BY d.id ASC`
	var rows []Domain
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, wrap("list domains", err)
	}
	return rows, nil
}

// ListActiveLocales returns active locales ordered by position, then id.
func (r *Repository) ListActiveLocales(ctx context.Context) ([]Locale, error) {
	q := `SELECT ` + localeColumns + `
        FROM   ` + LocaleTable + `
        WHERE  active = TRUE
        ORDER BY position ASC, id ASC`
	var rows []Locale
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, wrap("list active locales", err)
	}
	return rows, nil
}

// DomainByHost fetches one domain; host is normalised first.
func (r *Repository) DomainByHost(ctx context.Context, host string) (*Domain, error) {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	q := `SELECT ` + domainColumns + `
        FROM   ` + DomainTable + ` d
        LEFT JOIN ` + LocaleTable + ` l ON l.id = d.locale_id
        WHERE  d.domain = ?
        LIMIT  1`
	var rec Domain
	if err := r.db.GetContext(ctx, &rec, q, host); err != nil {
		return nil, wrap("domain by host", err)
	}
	return &rec, nil
}

// LocaleByCode fetches one locale regardless of its active flag.
func (r *Repository) LocaleByCode(ctx context.Context, code locale.Code) (*Locale, error) {
	q := `SELECT ` + localeColumns + `
        FROM   ` + LocaleTable + `
        WHERE  locale = ?
        LIMIT  1`
	var rec Locale
	if err := r.db.GetContext(ctx, &rec, q, code.String()); err != nil {
		return nil, wrap("locale by code", err)
	}
	return &rec, nil
}

// DomainsByLocale returns the domains bound to code, ordered by id.
func (r *Repository) DomainsByLocale(ctx context.Context, code locale.Code) ([]Domain, error) {
	q := `SELECT ` + domainColumns + `
        FROM   ` + DomainTable + ` d
        JOIN   ` + LocaleTable + ` l ON l.id = d.locale_id
        WHERE  l.locale = ?
        ORDER BY d.id ASC`
	var rows []Domain
	if err := r.db.SelectContext(ctx, &rows, q, code.String()); err != nil {
		return nil, wrap("domains by locale", err)
	}
	return rows, nil
}

// UpdateProtectedPasswordHash persists a rehashed password.
func (r *Repository) UpdateProtectedPasswordHash(ctx context.Context, id uint64, hash string) error {
	q := `UPDATE ` + DomainTable + `
        SET    protected_password = ?, updated_date = CURRENT_TIMESTAMP
        WHERE  id = ?`
	res, err := r.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return wrap("update password hash", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update password hash: %w", ErrNotFound)
	}
	return nil
}

func wrap(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUnknownTable(err):
		return fmt.Errorf("%s: %w: %v", op, ErrTablesMissing, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isUnknownTable recognises MariaDB/MySQL (1146) and Postgres (42P01)
// "table does not exist" errors.
func isUnknownTable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146
	}
	msg := err.Error()
	return strings.Contains(msg, "1146") || strings.Contains(msg, "42P01")
}

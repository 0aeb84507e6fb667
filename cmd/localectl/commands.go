package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/yanizio/adept-locale/internal/cache"
	"github.com/yanizio/adept-locale/internal/config"
	"github.com/yanizio/adept-locale/internal/database"
	"github.com/yanizio/adept-locale/internal/locale"
	"github.com/yanizio/adept-locale/internal/logger"
	"github.com/yanizio/adept-locale/internal/resolver"
	"github.com/yanizio/adept-locale/internal/site"
	"github.com/yanizio/adept-locale/internal/snapshot"
	"github.com/yanizio/adept-locale/internal/vault"
)

type snapshotStore interface {
	Get(ctx context.Context) (*snapshot.Snapshot, error)
	Invalidate(ctx context.Context) error
	Rebuild(ctx context.Context) (*snapshot.Snapshot, error)
}

type domainStore interface {
	DomainByHost(ctx context.Context, host string) (*site.Domain, error)
	UpdateProtectedPasswordHash(ctx context.Context, id uint64, hash string) error
	LocaleByCode(ctx context.Context, code locale.Code) (*site.Locale, error)
	DomainsByLocale(ctx context.Context, code locale.Code) ([]site.Domain, error)
}

// app carries the dependencies shared by every command.  Tests fill store,
// repo, and hasher directly; otherwise open builds them from config.
type app struct {
	out io.Writer
	in  io.Reader

	logLevel string

	store   snapshotStore
	repo    domainStore
	hasher  site.Hasher
	closers []func() error
}

// errDenied makes verify-password exit non-zero.
var errDenied = errors.New("password denied")

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "localectl",
		Short:         "Inspect and maintain locale resolution data",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		snapshotCmd(a),
		invalidateCmd(a),
		resolveCmd(a),
		localeCmd(a),
		hashPasswordCmd(a),
		verifyPasswordCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if _, err := logger.NewConsole(a.logLevel); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx)
		if err != nil {
			return err
		}
		config.SetSecretGetter(vc)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect global DB: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	raw, err := cache.Open(cache.Options{
		Backend: cfg.Cache.Backend,
		Redis: cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		},
	})
	if err != nil {
		return fmt.Errorf("open snapshot cache: %w", err)
	}
	a.closers = append(a.closers, raw.Close)

	chains, err := cfg.Localization.FallbackChains()
	if err != nil {
		return err
	}
	repo := site.NewRepository(db)
	a.repo = repo
	a.store = snapshot.NewStore(raw, repo,
		snapshot.WithTTL(cfg.Cache.TTL),
		snapshot.WithFallbackPolicy(snapshot.ChainPolicy(chains)))
	a.hasher = site.Hasher{Cost: cfg.Security.BcryptCost}
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	_ = zap.L().Sync()
	return errors.Join(errs...)
}

//
// ── snapshot / invalidate ───────────────────────────────────────────────
//

func snapshotCmd(a *app) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the localization snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			get := a.store.Get
			if rebuild {
				get = a.store.Rebuild
			}
			snap, err := get(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild from the database and overwrite the cache entry")
	return cmd
}

func invalidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate",
		Short: "Drop the shared snapshot so the next read rebuilds it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Invalidate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "snapshot invalidated")
			return nil
		},
	}
}

//
// ── resolve ─────────────────────────────────────────────────────────────
//

func resolveCmd(a *app) *cobra.Command {
	var defined, param, ctxLocale string
	cmd := &cobra.Command{
		Use:   "resolve <host>",
		Short: "Show the locale and environment a request to host would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res := resolver.New(a.store)

			var q *string
			if cmd.Flags().Changed("param") {
				q = &param
			}
			if fe := res.Ingest(args[0], q); fe != nil {
				fmt.Fprintf(a.out, "ignored: %v\n", fe)
			}
			if defined != "" {
				if err := res.SetLocale(defined); err != nil {
					return err
				}
			}
			if ctxLocale != "" {
				if err := res.SetContextLocale(ctxLocale); err != nil {
					return err
				}
			}

			code, err := res.ResolveLocale(ctx, ctxLocale != "")
			if err != nil {
				return err
			}
			env, err := res.Environment(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "host:        %s\nlocale:      %s\nenvironment: %s\n", res.Host(), code, env)
			return nil
		},
	}
	cmd.Flags().StringVar(&defined, "locale", "", "Explicit locale, as set by routing")
	cmd.Flags().StringVar(&param, "param", "", "Raw value of the locale URL parameter")
	cmd.Flags().StringVar(&ctxLocale, "context", "", "Context locale; enables the context fallback")
	return cmd
}

//
// ── locale ──────────────────────────────────────────────────────────────
//

func localeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locale <code>",
		Short: "Show one locale record and the domains bound to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := locale.Normalize(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			l, err := a.repo.LocaleByCode(ctx, code)
			if err != nil {
				return err
			}
			domains, err := a.repo.DomainsByLocale(ctx, code)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "locale:   %s (%s)\n", l.Code, languageName(l.Code))
			fmt.Fprintf(a.out, "active:   %t\ndefault:  %t\nposition: %d\n", l.Active, l.IsDefault, l.Position)
			if l.SiteName != nil {
				fmt.Fprintf(a.out, "site:     %s\n", *l.SiteName)
			}
			fmt.Fprintln(a.out, "domains:")
			if len(domains) == 0 {
				fmt.Fprintln(a.out, "  (none)")
			}
			for _, d := range domains {
				mark := ""
				if d.IsDefault {
					mark = " (default)"
				}
				fmt.Fprintf(a.out, "  %-10s %s://%s%s\n", d.Environment, d.Scheme(), d.Host, mark)
			}
			return nil
		},
	}
}

// languageName is the English name followed by the native one, e.g.
// "Czech, čeština".
func languageName(code locale.Code) string {
	tag, err := language.Parse(code.String())
	if err != nil {
		return "unknown"
	}
	en := display.English.Languages().Name(tag)
	self := display.Self.Name(tag)
	if en == "" {
		return "unknown"
	}
	if self == "" || self == en {
		return en
	}
	return en + ", " + self
}

//
// ── passwords ───────────────────────────────────────────────────────────
//

func hashPasswordCmd(a *app) *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin; with --domain store it on that host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plain, err := readSecret(a.in)
			if err != nil {
				return err
			}
			if domain == "" {
				hash, err := a.hasher.Hash(plain)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, hash)
				return nil
			}

			ctx := cmd.Context()
			d, err := a.repo.DomainByHost(ctx, domain)
			if err != nil {
				return err
			}
			if err := d.SetProtectedPassword(a.hasher, &plain); err != nil {
				return err
			}
			if err := a.repo.UpdateProtectedPasswordHash(ctx, d.ID, *d.ProtectedPasswordHash); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "password updated for %s\n", d.Host)
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "Protected host to update")
	return cmd
}

func verifyPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-password <host>",
		Short: "Check a password read from stdin against a protected host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := readSecret(a.in)
			if err != nil {
				return err
			}
			d, err := a.repo.DomainByHost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v := d.VerifyPassword(a.hasher, plain)
			if !v.OK {
				return errDenied
			}
			if v.UpgradeRecommended {
				fmt.Fprintln(a.out, "ok (hash cost differs from policy; re-run hash-password)")
				return nil
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
}

// readSecret returns the first line of r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}

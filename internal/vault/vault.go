// internal/vault/vault.go
//
// Vault client wrapper.
//
// Context
// -------
//   - Concurrency-safe wrapper around the HashiCorp Vault Go SDK.
//   - Background token renewal, a KV-v2 read helper, and per-key caching.
//   - *Client satisfies config.SecretGetter, so `vault:` references in the
//     configuration resolve through it during Load.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                   // during boot.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)   // anywhere in the app.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// ErrEmptyRef is returned for a blank secret path or key.
var ErrEmptyRef = errors.New("secret path and key must be non-empty")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client

	// fetch reads one KV-v2 secret; swapped in tests.
	fetch func(ctx context.Context, mount, rel string) (map[string]any, error)
	now   func() time.Time

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop
// bound to ctx.
//
// Environment expectations
// ------------------------
//   - VAULT_ADDR   scheme and host of the Vault server.
//   - VAULT_TOKEN  initial token (falls back to ~/.vault-token).
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := newClient(func(ctx context.Context, mount, rel string) (map[string]any, error) {
		sec, err := apiCli.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	})
	c.api = apiCli

	go c.renewLoop(ctx)
	return c, nil
}

func newClient(fetch func(context.Context, string, string) (map[string]any, error)) *Client {
	return &Client{
		fetch: fetch,
		now:   time.Now,
		cache: make(map[string]cached),
	}
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", ErrEmptyRef
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		cv, ok := c.cache[canonical]
		c.cacheMu.RUnlock()
		if ok && c.now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	data, err := c.fetch(ctx, mount, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: c.now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	log := zap.L().Named("vault")
	for ctx.Err() == nil {
		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			log.Warn("token renew self failed", zap.Error(err))
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			log.Info("token is not renewable, sleeping 1h")
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			log.Warn("lifetime watcher init failed", zap.Error(err))
			backoff(ctx, 30*time.Second)
			continue
		}
		c.watch(ctx, log, watcher)
		backoff(ctx, 15*time.Second)
	}
}

// watch blocks until the watcher stops or ctx ends.
func (c *Client) watch(ctx context.Context, log *zap.Logger, w *vault.LifetimeWatcher) {
	go w.Start()
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				log.Warn("token renewal stopped", zap.Error(err))
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				log.Debug("token renewed", zap.Int("ttl_seconds", ev.Secret.Auth.LeaseDuration))
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// internal/cache/cache.go
//
// Byte-level cache contract shared by the snapshot store.
//
// Context
// -------
// The resolution snapshot is shared by every request in every process, so it
// lives behind a small key/value contract with two backends:
//
//   - memory  single process, TTL enforced on read plus a cleanup ticker.
//   - redis   shared across processes, TTL enforced by the server.
//
// Values are opaque bytes; encoding is the caller's concern.
//
// Notes
// -----
//   - A miss is (nil, false, nil).  Errors are reserved for backend failure.
//   - Namespaced prefixes every key with "<ns>:" so several stores can share
//     one Redis database.
package cache

import (
	"context"
	"fmt"
	"time"
)

// RawCache is the low-level cache interface that works with bytes.
type RawCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Redis   RedisOptions
}

// Open builds the backend named in opts.  An empty Backend means memory.
func Open(opts Options) (RawCache, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		r, err := NewRedis(opts.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}

type namespaced struct {
	raw    RawCache
	prefix string
}

// Namespaced wraps raw so every key is stored as ns + ":" + key.
func Namespaced(raw RawCache, ns string) RawCache {
	return &namespaced{raw: raw, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.raw.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.raw.Set(ctx, n.prefix+key, value, ttl)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.raw.Delete(ctx, n.prefix+key)
}

func (n *namespaced) Close() error { return n.raw.Close() }

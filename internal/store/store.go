// Package store defines the bulk-insert contract the load pipeline writes
// through, and a registry of backends keyed by URI scheme.
//
// Backends register themselves from init; import internal/store/all to make
// every built-in backend available.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/model"
)

// Store is a backing store that accepts batches of records.
//
// BulkInsert must not retain records after it returns, and must be safe for
// concurrent calls from several workers.
type Store interface {
	BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error
	Close(ctx context.Context) error
}

// Migrator is implemented by stores that can prepare a target ahead of a
// load (create a table, an index).
type Migrator interface {
	Migrate(ctx context.Context, target model.Target) error
}

// Opener connects to a backend for uri.
type Opener func(ctx context.Context, uri string, log zerolog.Logger) (Store, error)

// ErrUnknownScheme is returned by Open when no backend handles the URI scheme.
var ErrUnknownScheme = errors.New("unknown store scheme")

var (
	mu      sync.RWMutex
	openers = map[string]Opener{}
)

// Register makes a backend available for scheme. It replaces any previous
// registration.
func Register(scheme string, fn Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[strings.ToLower(scheme)] = fn
}

// Schemes lists registered schemes in sorted order.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(openers))
	for s := range openers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Scheme returns the part of uri before "://".
func Scheme(uri string) (string, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return "", fmt.Errorf("store uri %q has no scheme", uri)
	}
	return strings.ToLower(scheme), nil
}

// Open selects the backend for uri's scheme and connects to it.
func Open(ctx context.Context, uri string, log zerolog.Logger) (Store, error) {
	scheme, err := Scheme(uri)
	if err != nil {
		return nil, err
	}
	mu.RLock()
	fn, ok := openers[scheme]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownScheme, scheme, strings.Join(Schemes(), ", "))
	}
	st, err := fn(ctx, uri, log.With().Str("store", scheme).Logger())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", scheme, err)
	}
	return st, nil
}

// Migrate runs st's migration for target when st supports it. It reports
// whether anything ran.
func Migrate(ctx context.Context, st Store, target model.Target) (bool, error) {
	m, ok := st.(Migrator)
	if !ok {
		return false, nil
	}
	if err := m.Migrate(ctx, target); err != nil {
		return true, fmt.Errorf("migrate %s: %w", target, err)
	}
	return true, nil
}

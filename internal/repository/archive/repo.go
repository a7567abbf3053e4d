// Package archive stores rendered exports in a key-value store under their search id.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/nearby/internal/db"
	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/export"
)

// DefaultTTL is how long an export stays downloadable.
const DefaultTTL = time.Hour

var keyPrefix = domain.KeyPrefix + "export:"

// store is the consumer interface for the archive (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// Repo keeps exports in Valkey with an expiry.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates an archive repository. ttl <= 0 falls back to DefaultTTL.
func New(s store, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, ttl: ttl}
}

// Put stores data for searchID in format f.
func (r *Repo) Put(ctx context.Context, searchID string, f export.Format, data []byte) error {
	if err := r.store.SetWithTTL(ctx, key(searchID, f), data, r.ttl); err != nil {
		return fmt.Errorf("archive %s export %s: %w", f, searchID, err)
	}
	return nil
}

// Get returns the export for searchID in format f, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, searchID string, f export.Format) ([]byte, error) {
	data, err := r.store.Get(ctx, key(searchID, f))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("export %s.%s: %w", searchID, f.Extension(), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s export %s: %w", f, searchID, err)
	}
	return data, nil
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func key(searchID string, f export.Format) string {
	return keyPrefix + searchID + ":" + f.Extension()
}

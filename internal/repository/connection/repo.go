// Package connection persists provider connections. The
// (user, provider config) pair is the primary key; a reverse index by
// connection id serves webhook-driven lookups.
package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/account"
)

// store is the consumer interface for connections (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/sync.ConnectionWriter.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a connection repository. Keys are namespaced under prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// WithClock overrides the current-time source.
func (r *Repo) WithClock(now func() time.Time) *Repo {
	if now != nil {
		r.now = now
	}
	return r
}

// Upsert stores a connection. Re-authorizing an existing
// (user, provider config) pair refreshes the connection id in place and
// retires the stale reverse-index entry.
func (r *Repo) Upsert(ctx context.Context, conn account.Connection) error {
	key := r.pairKey(conn.UserID, conn.ProviderConfigKey)

	existing, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall connection %s: %w", key, err)
	}

	now := r.now().UTC()
	conn.UpdatedAt = now
	conn.CreatedAt = now
	if createdAt := existing["created_at"]; createdAt != "" {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			conn.CreatedAt = t
		}
	}

	if old := existing["connection_id"]; old != "" && old != conn.ConnectionID {
		if err := r.store.Del(ctx, r.indexKey(old)); err != nil {
			return fmt.Errorf("del stale connection index %s: %w", old, err)
		}
	}

	if err := r.store.HSet(ctx, key, connectionToHash(conn)); err != nil {
		return fmt.Errorf("hset connection %s: %w", key, err)
	}
	if err := r.store.Set(ctx, r.indexKey(conn.ConnectionID), []byte(key)); err != nil {
		return fmt.Errorf("set connection index %s: %w", conn.ConnectionID, err)
	}
	return nil
}

// GetByConnectionID resolves a connection through the reverse index.
func (r *Repo) GetByConnectionID(ctx context.Context, connectionID string) (account.Connection, error) {
	raw, err := r.store.Get(ctx, r.indexKey(connectionID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return account.Connection{}, fmt.Errorf("connection %s: %w", connectionID, domain.ErrConnectionNotFound)
		}
		return account.Connection{}, fmt.Errorf("get connection index %s: %w", connectionID, err)
	}

	m, err := r.store.HGetAll(ctx, string(raw))
	if err != nil {
		return account.Connection{}, fmt.Errorf("hgetall connection %s: %w", raw, err)
	}
	if len(m) == 0 {
		// Dangling index entry: the pair hash was removed.
		return account.Connection{}, fmt.Errorf("connection %s: %w", connectionID, domain.ErrConnectionNotFound)
	}
	return connectionFromHash(m), nil
}

func (r *Repo) pairKey(userID, providerConfigKey string) string {
	return r.prefix + "connection:" + userID + ":" + providerConfigKey
}

func (r *Repo) indexKey(connectionID string) string {
	return r.prefix + "connidx:" + connectionID
}

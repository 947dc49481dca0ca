// Package syncstate persists the last-sync bookkeeping entry per
// (connection, model) pair.
package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/db"
	domstate "github.com/kailas-cloud/vecsync/internal/domain/syncstate"
)

// store is the consumer interface for sync state (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/sync.StateRecorder.
type Repo struct {
	store  store
	prefix string
}

// New creates a sync-state repository. Keys are namespaced under prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Record overwrites the last-sync entry for the state's pair.
func (r *Repo) Record(ctx context.Context, st domstate.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal sync state: %w", err)
	}
	key := r.key(st.ConnectionID, st.Model)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set sync state %s: %w", key, err)
	}
	return nil
}

// Last returns the most recent entry for a pair. The second return is
// false when the pair has never synced.
func (r *Repo) Last(ctx context.Context, connectionID, model string) (domstate.State, bool, error) {
	key := r.key(connectionID, model)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domstate.State{}, false, nil
		}
		return domstate.State{}, false, fmt.Errorf("get sync state %s: %w", key, err)
	}

	var st domstate.State
	if err := json.Unmarshal(data, &st); err != nil {
		return domstate.State{}, false, fmt.Errorf("unmarshal sync state %s: %w", key, err)
	}
	return st, true, nil
}

func (r *Repo) key(connectionID, model string) string {
	return r.prefix + "syncstate:" + connectionID + ":" + model
}

// Package user reads end-user accounts from the relational store.
// Accounts are created by the signup flow outside this service.
package user

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/account"
)

// store is the consumer interface for users (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo implements usecase/sync.UserReader.
type Repo struct {
	store  store
	prefix string
}

// New creates a user repository. Keys are namespaced under prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Get returns a user by id.
func (r *Repo) Get(ctx context.Context, id string) (account.User, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return account.User{}, fmt.Errorf("hgetall user %s: %w", id, err)
	}
	if len(m) == 0 {
		return account.User{}, domain.ErrUserNotFound
	}
	return account.User{
		ID:          id,
		Email:       m["email"],
		DisplayName: m["display_name"],
	}, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "user:" + id
}

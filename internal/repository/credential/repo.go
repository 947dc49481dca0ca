// Package credential resolves a connection id to the owning user's
// vector-store credentials.
package credential

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/account"
)

// store is the consumer interface for credentials (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// connectionReader resolves connection ids to connections.
type connectionReader interface {
	GetByConnectionID(ctx context.Context, connectionID string) (account.Connection, error)
}

// Resolver implements usecase/sync.CredentialResolver.
type Resolver struct {
	store       store
	connections connectionReader
	prefix      string
}

// New creates a credential resolver. Keys are namespaced under prefix.
func New(s store, connections connectionReader, prefix string) *Resolver {
	return &Resolver{store: s, connections: connections, prefix: prefix}
}

// Resolve returns the vector-store credentials behind a connection id.
// A connection whose user never stored credentials is fatal for the
// delivery: retrying cannot help until the user completes setup.
func (r *Resolver) Resolve(ctx context.Context, connectionID string) (account.Credentials, error) {
	conn, err := r.connections.GetByConnectionID(ctx, connectionID)
	if err != nil {
		return account.Credentials{}, fmt.Errorf("resolve connection: %w", err)
	}

	m, err := r.store.HGetAll(ctx, r.key(conn.UserID))
	if err != nil {
		return account.Credentials{}, fmt.Errorf("hgetall credentials for user %s: %w", conn.UserID, err)
	}

	creds := account.Credentials{
		APIKey:       m["api_key"],
		DatabaseName: m["database_name"],
		TenantID:     m["tenant_id"],
	}
	if creds.Empty() {
		return account.Credentials{}, fmt.Errorf("user %s: %w", conn.UserID, domain.ErrCredentialsNotConfigured)
	}
	return creds, nil
}

func (r *Resolver) key(userID string) string {
	return r.prefix + "credentials:" + userID
}

package sync

import (
	"context"

	"github.com/kailas-cloud/vecsync/internal/domain/account"
	"github.com/kailas-cloud/vecsync/internal/domain/chunk"
	"github.com/kailas-cloud/vecsync/internal/domain/record"
	"github.com/kailas-cloud/vecsync/internal/domain/syncstate"
	"github.com/kailas-cloud/vecsync/internal/domain/where"
)

// RecordFetcher retrieves changed records from the connector collaborator.
type RecordFetcher interface {
	ListRecords(ctx context.Context, connectionID, providerConfigKey, model string, limit int) ([]record.Record, error)
}

// CredentialResolver resolves the vector-store credentials behind a
// connection id.
type CredentialResolver interface {
	Resolve(ctx context.Context, connectionID string) (account.Credentials, error)
}

// Collection is one user's vector-store collection.
type Collection interface {
	Upsert(ctx context.Context, batch chunk.Batch) error
	Delete(ctx context.Context, clause where.Clause) error
}

// CollectionProvider opens (creating if needed) a named collection with
// the given credentials.
type CollectionProvider interface {
	GetOrCreate(ctx context.Context, creds account.Credentials, name string) (Collection, error)
}

// UserReader looks up users by id.
type UserReader interface {
	Get(ctx context.Context, id string) (account.User, error)
}

// ConnectionWriter upserts connections keyed by (user, provider config).
type ConnectionWriter interface {
	Upsert(ctx context.Context, conn account.Connection) error
}

// Embedder precomputes chunk vectors before upsert. Optional: when nil,
// the collection embeds server-side.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// StateRecorder persists per-pair sync bookkeeping. Optional; both
// reads and writes are best effort and never fail a delivery.
type StateRecorder interface {
	Record(ctx context.Context, st syncstate.State) error
	Last(ctx context.Context, connectionID, model string) (syncstate.State, bool, error)
}

package sync

import (
	"context"

	"github.com/kailas-cloud/vecsync/internal/domain/account"
	"github.com/kailas-cloud/vecsync/internal/domain/chunk"
	"github.com/kailas-cloud/vecsync/internal/domain/record"
	"github.com/kailas-cloud/vecsync/internal/domain/syncstate"
	"github.com/kailas-cloud/vecsync/internal/domain/where"
)

// mockFetcher implements RecordFetcher for tests.
type mockFetcher struct {
	listFn func(ctx context.Context, connectionID, providerConfigKey, model string, limit int) ([]record.Record, error)
	calls  int
}

func (m *mockFetcher) ListRecords(ctx context.Context, connectionID, providerConfigKey, model string, limit int) ([]record.Record, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx, connectionID, providerConfigKey, model, limit)
	}
	return nil, nil
}

// mockResolver implements CredentialResolver for tests.
type mockResolver struct {
	resolveFn func(ctx context.Context, connectionID string) (account.Credentials, error)
	calls     int
}

func (m *mockResolver) Resolve(ctx context.Context, connectionID string) (account.Credentials, error) {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, connectionID)
	}
	return account.Credentials{APIKey: "key", DatabaseName: "db", TenantID: "tenant"}, nil
}

// mockCollection records every upsert and delete it receives.
type mockCollection struct {
	upsertFn func(ctx context.Context, batch chunk.Batch) error
	deleteFn func(ctx context.Context, clause where.Clause) error

	upserts []chunk.Batch
	deletes []where.Clause
}

func (m *mockCollection) Upsert(ctx context.Context, batch chunk.Batch) error {
	m.upserts = append(m.upserts, batch)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, batch)
	}
	return nil
}

func (m *mockCollection) Delete(ctx context.Context, clause where.Clause) error {
	m.deletes = append(m.deletes, clause)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, clause)
	}
	return nil
}

// mockProvider implements CollectionProvider for tests.
type mockProvider struct {
	col       *mockCollection
	getFn     func(ctx context.Context, creds account.Credentials, name string) (Collection, error)
	calls     int
	lastCreds account.Credentials
	lastName  string
}

func (m *mockProvider) GetOrCreate(ctx context.Context, creds account.Credentials, name string) (Collection, error) {
	m.calls++
	m.lastCreds = creds
	m.lastName = name
	if m.getFn != nil {
		return m.getFn(ctx, creds, name)
	}
	return m.col, nil
}

// mockUsers implements UserReader for tests.
type mockUsers struct {
	getFn func(ctx context.Context, id string) (account.User, error)
	calls int
}

func (m *mockUsers) Get(ctx context.Context, id string) (account.User, error) {
	m.calls++
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return account.User{ID: id}, nil
}

// mockConnections implements ConnectionWriter for tests.
type mockConnections struct {
	upsertFn func(ctx context.Context, conn account.Connection) error
	upserts  []account.Connection
}

func (m *mockConnections) Upsert(ctx context.Context, conn account.Connection) error {
	m.upserts = append(m.upserts, conn)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, conn)
	}
	return nil
}

// mockStates implements StateRecorder for tests.
type mockStates struct {
	recordFn  func(ctx context.Context, st syncstate.State) error
	lastFn    func(ctx context.Context, connectionID, model string) (syncstate.State, bool, error)
	recorded  []syncstate.State
	lastCalls int
}

func (m *mockStates) Record(ctx context.Context, st syncstate.State) error {
	m.recorded = append(m.recorded, st)
	if m.recordFn != nil {
		return m.recordFn(ctx, st)
	}
	return nil
}

func (m *mockStates) Last(ctx context.Context, connectionID, model string) (syncstate.State, bool, error) {
	m.lastCalls++
	if m.lastFn != nil {
		return m.lastFn(ctx, connectionID, model)
	}
	return syncstate.State{}, false, nil
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
	calls   int
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

// newTestService wires a Service with fresh mocks and fast retries.
func newTestService() (*Service, *mockFetcher, *mockResolver, *mockProvider, *mockCollection) {
	fetcher := &mockFetcher{}
	resolver := &mockResolver{}
	col := &mockCollection{}
	provider := &mockProvider{col: col}
	svc := New(fetcher, resolver, provider, &mockUsers{}, &mockConnections{}).
		WithRetry(RetryConfig{MaxRetries: 2, InitialBackoff: 1, MaxBackoff: 1, BackoffMultiplier: 1})
	return svc, fetcher, resolver, provider, col
}

// syncRecord builds a raw record with a change-tracking block.
func syncRecord(id string, fields map[string]any, deleted bool) record.Record {
	rec := record.Record{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	meta := map[string]any{
		"first_seen_at":    "2025-01-01T00:00:00Z",
		"last_modified_at": "2025-02-01T10:00:00Z",
		"last_action":      "UPDATED",
	}
	if deleted {
		meta["deleted_at"] = "2025-02-02T00:00:00Z"
		meta["last_action"] = "DELETED"
	}
	rec["_nango_metadata"] = meta
	return rec
}

package credential

import (
	"context"

	"github.com/kailas-cloud/vecsync/internal/domain/account"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllFn func(ctx context.Context, key string) (map[string]string, error)
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

// mockConnections implements connectionReader for tests.
type mockConnections struct {
	getFn func(ctx context.Context, connectionID string) (account.Connection, error)
}

func (m *mockConnections) GetByConnectionID(ctx context.Context, connectionID string) (account.Connection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, connectionID)
	}
	return account.Connection{}, nil
}

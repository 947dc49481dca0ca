package connection

import (
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain/account"
)

// connectionToHash converts a domain Connection to a map for HSET.
func connectionToHash(conn account.Connection) map[string]string {
	return map[string]string{
		"user_id":             conn.UserID,
		"connection_id":       conn.ConnectionID,
		"provider_config_key": conn.ProviderConfigKey,
		"created_at":          conn.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":          conn.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// connectionFromHash hydrates a domain Connection from an HGETALL result map.
func connectionFromHash(m map[string]string) account.Connection {
	conn := account.Connection{
		UserID:            m["user_id"],
		ConnectionID:      m["connection_id"],
		ProviderConfigKey: m["provider_config_key"],
	}
	if t, err := time.Parse(time.RFC3339, m["created_at"]); err == nil {
		conn.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, m["updated_at"]); err == nil {
		conn.UpdatedAt = t
	}
	return conn
}

// Package account holds the relational-store entities consumed by the
// sync pipeline: users, provider connections, and vector-store credentials.
package account

import "time"

// User is an end user of the service. Users are created by the signup
// flow, which lives outside this service; the pipeline only reads them.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// Connection links a user to one provider configuration. The
// (UserID, ProviderConfigKey) pair is unique: re-authorizing the same
// provider refreshes ConnectionID instead of creating a duplicate.
type Connection struct {
	UserID            string
	ConnectionID      string
	ProviderConfigKey string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Credentials identify a user's vector-store collection.
type Credentials struct {
	APIKey       string
	DatabaseName string
	TenantID     string
}

// Empty reports whether no credentials are stored.
func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.DatabaseName == "" && c.TenantID == ""
}

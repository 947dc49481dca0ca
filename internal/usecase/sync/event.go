package sync

// Event type discriminators on the webhook wire.
const (
	EventTypeAuth = "auth"
	EventTypeSync = "sync"
)

// EndUser identifies the end user behind an auth event.
type EndUser struct {
	EndUserID string `json:"endUserId"`
}

// Event is one webhook delivery payload, discriminated by Type.
type Event struct {
	Type              string   `json:"type"`
	Success           bool     `json:"success"`
	ConnectionID      string   `json:"connectionId"`
	ProviderConfigKey string   `json:"providerConfigKey"`
	Model             string   `json:"model,omitempty"`
	SyncName          string   `json:"syncName,omitempty"`
	ModifiedAfter     string   `json:"modifiedAfter,omitempty"`
	EndUser           *EndUser `json:"endUser,omitempty"`
}

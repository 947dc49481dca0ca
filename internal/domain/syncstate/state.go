// Package syncstate holds the per-connection sync bookkeeping entity.
package syncstate

import "time"

// State records the outcome of the most recent delivery processed for a
// (connection, model) pair. It is advisory: the pipeline never reads it
// to decide what to sync, it exists for operators and status surfaces.
type State struct {
	ConnectionID      string    `json:"connection_id"`
	Model             string    `json:"model"`
	SyncedAt          time.Time `json:"synced_at"`
	RecordsFetched    int       `json:"records_fetched"`
	DocumentsUpserted int       `json:"documents_upserted"`
	DocumentsDeleted  int       `json:"documents_deleted"`
}

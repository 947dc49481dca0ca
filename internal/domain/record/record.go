// Package record models raw provider records as delivered by the
// connector collaborator, including their change-tracking block.
package record

import (
	"fmt"
	"strconv"
	"time"
)

// metaField is the wire key of the connector's change-tracking block.
const metaField = "_nango_metadata"

// Record is one raw provider record: an open mapping whose shape depends
// on the provider model. Typed accessors tolerate missing or mistyped
// fields by returning zero values.
type Record map[string]any

// ChangeMeta is the connector's per-record change-tracking block.
type ChangeMeta struct {
	FirstSeenAt    time.Time
	LastModifiedAt time.Time
	LastAction     string
	DeletedAt      *time.Time
	PrunedAt       *time.Time
	Cursor         string
}

// Deleted reports whether the record was deleted at the provider.
func (m ChangeMeta) Deleted() bool {
	return m.DeletedAt != nil
}

// ChangeMeta extracts the change-tracking block. The second return is
// false when the block is absent entirely, which callers must treat as
// a fatal data-integrity condition.
func (r Record) ChangeMeta() (ChangeMeta, bool) {
	raw, ok := r[metaField].(map[string]any)
	if !ok {
		return ChangeMeta{}, false
	}

	meta := ChangeMeta{
		LastAction: stringValue(raw["last_action"]),
		Cursor:     stringValue(raw["cursor"]),
	}
	meta.FirstSeenAt = timeValue(raw["first_seen_at"])
	meta.LastModifiedAt = timeValue(raw["last_modified_at"])
	if t := timeValue(raw["deleted_at"]); !t.IsZero() {
		meta.DeletedAt = &t
	}
	if t := timeValue(raw["pruned_at"]); !t.IsZero() {
		meta.PrunedAt = &t
	}
	return meta, true
}

// ID returns the provider's native record id as a string.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; ids are integral.
		return strconv.FormatInt(int64(v), 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// String returns the named field as a string, or "" when absent.
func (r Record) String(key string) string {
	return stringValue(r[key])
}

// Int returns the named field as an int64, or 0 when absent.
func (r Record) Int(key string) int64 {
	switch v := r[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Float returns the named field as a float64, parsing strings, or 0.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Time parses the named field as an RFC 3339 timestamp.
func (r Record) Time(key string) time.Time {
	return timeValue(r[key])
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func timeValue(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

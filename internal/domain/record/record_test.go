package record

import (
	"encoding/json"
	"testing"
	"time"
)

func TestChangeMeta(t *testing.T) {
	raw := `{
		"id": "123",
		"_nango_metadata": {
			"first_seen_at": "2025-01-01T10:00:00Z",
			"last_modified_at": "2025-02-01T10:00:00Z",
			"last_action": "UPDATED",
			"deleted_at": null,
			"pruned_at": null,
			"cursor": "abc"
		}
	}`

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	meta, ok := rec.ChangeMeta()
	if !ok {
		t.Fatal("expected change meta to be present")
	}
	if meta.LastAction != "UPDATED" {
		t.Errorf("LastAction = %q, want UPDATED", meta.LastAction)
	}
	if meta.Cursor != "abc" {
		t.Errorf("Cursor = %q, want abc", meta.Cursor)
	}
	want := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	if !meta.LastModifiedAt.Equal(want) {
		t.Errorf("LastModifiedAt = %v, want %v", meta.LastModifiedAt, want)
	}
	if meta.Deleted() {
		t.Error("record should not be marked deleted")
	}
}

func TestChangeMeta_Deleted(t *testing.T) {
	rec := Record{
		"id": "42",
		"_nango_metadata": map[string]any{
			"deleted_at": "2025-03-01T00:00:00Z",
		},
	}

	meta, ok := rec.ChangeMeta()
	if !ok {
		t.Fatal("expected change meta to be present")
	}
	if !meta.Deleted() {
		t.Fatal("record should be marked deleted")
	}
}

func TestChangeMeta_Missing(t *testing.T) {
	rec := Record{"id": "42"}
	if _, ok := rec.ChangeMeta(); ok {
		t.Fatal("expected missing change meta")
	}
}

func TestID(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"string id", Record{"id": "abc"}, "abc"},
		{"numeric id", Record{"id": float64(987654321)}, "987654321"},
		{"missing id", Record{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.ID(); got != tc.want {
				t.Errorf("ID() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTypedAccessors(t *testing.T) {
	rec := Record{
		"title":  "hello",
		"size":   float64(2048),
		"ts":     "1714000000.000200",
		"absent": nil,
	}

	if got := rec.String("title"); got != "hello" {
		t.Errorf("String(title) = %q", got)
	}
	if got := rec.Int("size"); got != 2048 {
		t.Errorf("Int(size) = %d", got)
	}
	if got := rec.Float("ts"); got != 1714000000.0002 {
		t.Errorf("Float(ts) = %v", got)
	}
	if got := rec.String("absent"); got != "" {
		t.Errorf("String(absent) = %q, want empty", got)
	}
	if got := rec.Int("missing"); got != 0 {
		t.Errorf("Int(missing) = %d, want 0", got)
	}
}

package user

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

func TestGet_Success(t *testing.T) {
	s := &mockStore{hgetAllFn: func(_ context.Context, key string) (map[string]string, error) {
		if key != "vecsync:user:u-1" {
			t.Errorf("unexpected key %q", key)
		}
		return map[string]string{"email": "dev@example.com", "display_name": "Dev"}, nil
	}}

	u, err := New(s, "vecsync:").Get(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u-1" || u.Email != "dev@example.com" || u.DisplayName != "Dev" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := &mockStore{hgetAllFn: func(context.Context, string) (map[string]string, error) {
		return map[string]string{}, nil
	}}

	_, err := New(s, "vecsync:").Get(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	s := &mockStore{hgetAllFn: func(context.Context, string) (map[string]string, error) {
		return nil, context.DeadlineExceeded
	}}

	_, err := New(s, "vecsync:").Get(context.Background(), "u-1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/redis/redistest"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	client, _ := redistest.NewClient()
	manager, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 120})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestNewManagerRejectsShortRefreshTTL(t *testing.T) {
	client, _ := redistest.NewClient()
	if _, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatalf("expected error when refresh ttl <= access ttl")
	}
	if _, err := NewManager(nil, config.JWTConfig{}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	userID := uuid.New()
	accessID := "access-123"

	token, err := manager.Generate(ctx, userID, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ok, _ := manager.HasSession(ctx, accessID); !ok {
		t.Fatalf("expected session after generate")
	}

	if _, _, err := manager.Rotate(ctx, userID, accessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, uuid.New(), accessID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected rotation for another user to fail, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, userID, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if ok, _ := manager.HasSession(ctx, accessID); ok {
		t.Fatalf("old access session left behind")
	}
	if ok, _ := manager.HasSession(ctx, newAccessID); !ok {
		t.Fatalf("expected new session")
	}
	if newToken == token {
		t.Fatalf("expected a fresh refresh token")
	}
}

func TestManagerRevoke(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	if _, err := manager.Generate(ctx, uuid.New(), "jti-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := manager.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, err := manager.HasSession(ctx, "jti-1"); ok || err != nil {
		t.Fatalf("expected no session after revoke, ok=%v err=%v", ok, err)
	}
}

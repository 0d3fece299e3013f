package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/db/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return client
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.User{Name: "committed", Email: "c@example.com", PasswordHash: "x"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.User{Name: "rolled", Email: "r@example.com", PasswordHash: "x"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := client.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: "mysql", DSN: "x"}, nil); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestIsUniqueViolationOnSQLite(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	user := models.User{Name: "a", Email: "dup@example.com", PasswordHash: "x"}
	if err := client.DB().WithContext(ctx).Create(&user).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err := client.DB().WithContext(ctx).Create(&models.User{Name: "b", Email: "dup@example.com", PasswordHash: "x"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("other"), "") {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestJSONColumnsRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	follower := uuid.New()
	user := models.User{Name: "a", Email: "json@example.com", PasswordHash: "x"}
	user.Followers = user.Followers.Add(follower)
	if err := client.DB().WithContext(ctx).Create(&user).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var loaded models.User
	if err := client.DB().WithContext(ctx).First(&loaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Followers.Contains(follower) {
		t.Fatalf("expected follower to survive round trip, got %v", loaded.Followers)
	}
	if loaded.Following == nil || len(loaded.Following) != 0 {
		t.Fatalf("expected empty following list, got %v", loaded.Following)
	}
}

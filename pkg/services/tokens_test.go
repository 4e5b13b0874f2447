package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/solvik/fortnox-sync/db"
	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/models"
)

func seedIntegration(store *db.MockStore, userID string, expiresAt time.Time) *models.Integration {
	integration := &models.Integration{
		UserID:       userID,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    expiresAt,
	}
	store.SaveIntegration(integration)
	return integration
}

func TestEnsureValidNoIntegration(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	service := NewTokenService(store, client)

	_, err := service.EnsureValid(context.Background(), "user-1")
	if !errors.Is(err, ErrNoIntegration) {
		t.Fatalf("Expected ErrNoIntegration, got %v", err)
	}
	if client.RefreshCalls != 0 {
		t.Errorf("Expected no refresh attempts, got %d", client.RefreshCalls)
	}
}

func TestEnsureValidFreshTokenSkipsRefresh(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	service := NewTokenService(store, client)

	seedIntegration(store, "user-1", time.Now().Add(time.Hour))

	integration, err := service.EnsureValid(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if integration.AccessToken != "old-access" {
		t.Errorf("Expected the stored token untouched, got %s", integration.AccessToken)
	}
	if client.RefreshCalls != 0 {
		t.Errorf("Expected no refresh for a valid token, got %d calls", client.RefreshCalls)
	}
}

func TestEnsureValidRefreshesExpired(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	client.Tokens = &fortnox.TokenResponse{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    3600,
	}
	service := NewTokenService(store, client)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	seedIntegration(store, "user-1", now.Add(-time.Minute))

	integration, err := service.EnsureValid(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client.RefreshCalls != 1 {
		t.Errorf("Expected exactly 1 refresh, got %d", client.RefreshCalls)
	}
	if integration.AccessToken != "new-access" || integration.RefreshToken != "new-refresh" {
		t.Errorf("Unexpected tokens: %s / %s", integration.AccessToken, integration.RefreshToken)
	}
	wantExpiry := now.Add(time.Hour)
	if !integration.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("Expected expiry %v, got %v", wantExpiry, integration.ExpiresAt)
	}

	stored, _ := store.GetActiveIntegration("user-1")
	if stored.AccessToken != "new-access" || !stored.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("Refreshed tokens not persisted: %+v", stored)
	}
}

func TestEnsureValidRefreshesUnknownExpiry(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	client.Tokens = &fortnox.TokenResponse{AccessToken: "new-access", ExpiresIn: 3600}
	service := NewTokenService(store, client)

	seedIntegration(store, "user-1", time.Time{})

	if _, err := service.EnsureValid(context.Background(), "user-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client.RefreshCalls != 1 {
		t.Errorf("Expected a zero expiry to trigger a refresh, got %d calls", client.RefreshCalls)
	}
}

func TestEnsureValidKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	client.Tokens = &fortnox.TokenResponse{AccessToken: "new-access", ExpiresIn: 3600}
	service := NewTokenService(store, client)

	seedIntegration(store, "user-1", time.Now().Add(-time.Minute))

	integration, err := service.EnsureValid(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if integration.RefreshToken != "old-refresh" {
		t.Errorf("Expected the old refresh token kept, got %s", integration.RefreshToken)
	}
}

func TestEnsureValidRefreshRejected(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	client.RefreshErr = &fortnox.TokenError{StatusCode: 400, Body: `{"error":"invalid_grant"}`}
	service := NewTokenService(store, client)

	seedIntegration(store, "user-1", time.Now().Add(-time.Minute))

	_, err := service.EnsureValid(context.Background(), "user-1")
	if !errors.Is(err, ErrRefreshRejected) {
		t.Fatalf("Expected ErrRefreshRejected, got %v", err)
	}

	stored, _ := store.GetActiveIntegration("user-1")
	if stored.AccessToken != "old-access" {
		t.Errorf("Expected stored tokens untouched after rejection, got %s", stored.AccessToken)
	}
}

func TestEnsureValidRefreshNetworkError(t *testing.T) {
	store := db.NewMockStore()
	client := fortnox.NewMockAPI()
	client.RefreshErr = fmt.Errorf("connection refused")
	service := NewTokenService(store, client)

	seedIntegration(store, "user-1", time.Now().Add(-time.Minute))

	_, err := service.EnsureValid(context.Background(), "user-1")
	if err == nil {
		t.Fatalf("Expected an error")
	}
	if errors.Is(err, ErrRefreshRejected) {
		t.Errorf("A transport failure must not read as a rejected grant: %v", err)
	}
}

func TestEnsureValidPersistFailure(t *testing.T) {
	store := db.NewMockStore()
	store.UpdateIntegrationTokensErr = fmt.Errorf("disk full")
	client := fortnox.NewMockAPI()
	client.Tokens = &fortnox.TokenResponse{AccessToken: "new-access", ExpiresIn: 3600}
	service := NewTokenService(store, client)

	seedIntegration(store, "user-1", time.Now().Add(-time.Minute))

	_, err := service.EnsureValid(context.Background(), "user-1")
	if !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("Expected ErrPersistFailed, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solvik/fortnox-sync/db"
	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/models"
)

var (
	// ErrNoIntegration means the user never connected Fortnox or has
	// disconnected; there is nothing to refresh.
	ErrNoIntegration = errors.New("no active fortnox integration")
	// ErrRefreshRejected means the provider refused the refresh token.
	// The user must re-authorize.
	ErrRefreshRejected = errors.New("fortnox rejected the refresh token")
	// ErrPersistFailed means a fresh token pair was obtained but could not
	// be stored. The pair must not be used, or a retry would find the old
	// refresh token already consumed.
	ErrPersistFailed = errors.New("failed to persist refreshed tokens")
)

// TokenService keeps a user's access token valid, refreshing and persisting
// through the store when it expires.
type TokenService struct {
	store  db.Store
	client fortnox.API
	now    func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(store db.Store, client fortnox.API) *TokenService {
	return &TokenService{
		store:  store,
		client: client,
		now:    time.Now,
	}
}

// EnsureValid returns the user's integration with a usable access token,
// refreshing first when the stored one has expired. Refresh happens at most
// once; a rejection is fatal for the caller's run.
func (s *TokenService) EnsureValid(ctx context.Context, userID string) (*models.Integration, error) {
	integration, err := s.store.GetActiveIntegration(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	if integration == nil {
		return nil, ErrNoIntegration
	}

	if !integration.Expired(s.now()) {
		return integration, nil
	}

	log.Info().Str("user", userID).Time("expired_at", integration.ExpiresAt).
		Msg("Access token expired, refreshing")

	tokens, err := s.client.RefreshAccessToken(ctx, integration.RefreshToken)
	if err != nil {
		var tokenErr *fortnox.TokenError
		if errors.As(err, &tokenErr) {
			log.Error().Int("status", tokenErr.StatusCode).Str("user", userID).
				Msg("Fortnox refused the refresh token")
			return nil, fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		// Fortnox may omit the refresh token when it has not rotated.
		refreshToken = integration.RefreshToken
	}
	expiresAt := s.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	if err := s.store.UpdateIntegrationTokens(
		integration.ID, tokens.AccessToken, refreshToken, expiresAt,
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	integration.AccessToken = tokens.AccessToken
	integration.RefreshToken = refreshToken
	integration.ExpiresAt = expiresAt
	return integration, nil
}

package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/solvik/fortnox-sync/pkg/models"
)

// GetActiveIntegration retrieves the active Fortnox credential for a user.
// Returns (nil, nil) when the user never connected or disconnected.
func (db *DB) GetActiveIntegration(userID string) (*models.Integration, error) {
	query := `
	SELECT id, user_id, access_token, refresh_token, scope, expires_at,
		is_active, has_synced, last_synced_at
	FROM fortnox_integrations
	WHERE user_id = ? AND is_active = 1
	LIMIT 1
	`

	integration := &models.Integration{}
	var expiresAt, lastSyncedAt sql.NullTime
	var scope sql.NullString

	err := db.QueryRow(query, userID).Scan(
		&integration.ID,
		&integration.UserID,
		&integration.AccessToken,
		&integration.RefreshToken,
		&scope,
		&expiresAt,
		&integration.IsActive,
		&integration.HasSynced,
		&lastSyncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}

	integration.Scope = scope.String
	if expiresAt.Valid {
		integration.ExpiresAt = expiresAt.Time
	}
	if lastSyncedAt.Valid {
		integration.LastSyncedAt = &lastSyncedAt.Time
	}
	return integration, nil
}

// SaveIntegration inserts a new active credential, deactivating any previous
// one for the same user first.
func (db *DB) SaveIntegration(integration *models.Integration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE fortnox_integrations SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND is_active = 1`,
		integration.UserID,
	); err != nil {
		return fmt.Errorf("failed to deactivate previous integration: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO fortnox_integrations
			(user_id, access_token, refresh_token, scope, expires_at, is_active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		integration.UserID,
		integration.AccessToken,
		integration.RefreshToken,
		integration.Scope,
		integration.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit integration: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		integration.ID = id
	}
	integration.IsActive = true
	return nil
}

// UpdateIntegrationTokens persists a refreshed token pair and expiry in one
// statement.
func (db *DB) UpdateIntegrationTokens(id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := db.Exec(
		`UPDATE fortnox_integrations
		 SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		accessToken, refreshToken, expiresAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no integration found with id: %d", id)
	}
	return nil
}

// MarkIntegrationSynced flags a completed sync run on the credential.
func (db *DB) MarkIntegrationSynced(id int64, at time.Time) error {
	_, err := db.Exec(
		`UPDATE fortnox_integrations
		 SET has_synced = 1, last_synced_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark integration synced: %w", err)
	}
	return nil
}

// DeactivateIntegration disconnects a user. The row is kept for audit.
func (db *DB) DeactivateIntegration(id int64) error {
	result, err := db.Exec(
		`UPDATE fortnox_integrations SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate integration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no integration found with id: %d", id)
	}
	return nil
}

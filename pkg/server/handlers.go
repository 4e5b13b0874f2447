package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solvik/fortnox-sync/pkg/models"
	"github.com/solvik/fortnox-sync/pkg/services"
)

const (
	stateCookie = "fortnox_oauth_state"
	stateTTL    = 10 * time.Minute
	syncTimeout = 30 * time.Minute
)

// handleConnect starts the OAuth flow: a random state lands in a short-lived
// cookie together with the user id, and the browser is sent to Fortnox.
func (s *Server) handleConnect(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state+":"+userID, int(stateTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, s.client.AuthCodeURL(state))
}

// handleCallback validates the state against the cookie before exchanging
// the code, then stores the grant as the user's active integration.
func (s *Server) handleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	state, userID, ok := splitStateCookie(c)
	if !ok || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	tokens, err := s.client.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("Code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token exchange failed"})
		return
	}

	integration := &models.Integration{
		UserID:       userID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Scope:        tokens.Scope,
		ExpiresAt:    time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second),
	}
	if err := s.store.SaveIntegration(integration); err != nil {
		log.Error().Err(err).Msg("Failed to store integration")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store integration"})
		return
	}

	// Seed the company record from Fortnox so the first sync has a tenant
	// to attach vouchers to.
	if info, err := s.client.FetchCompanyInformation(c.Request.Context(), tokens.AccessToken); err != nil {
		log.Warn().Err(err).Msg("Could not fetch company information")
	} else {
		company := &models.Company{
			ID:                 uuid.NewString(),
			UserID:             userID,
			Name:               info.CompanyName,
			OrganisationNumber: info.OrganizationNumber,
		}
		if existing, err := s.store.GetCompanyByUser(userID); err == nil && existing != nil {
			company.ID = existing.ID
		}
		if err := s.store.UpsertCompany(company); err != nil {
			log.Warn().Err(err).Msg("Could not store company record")
		}
	}

	c.JSON(http.StatusOK, gin.H{"connected": true})
}

func splitStateCookie(c *gin.Context) (state, userID string, ok bool) {
	raw, err := c.Cookie(stateCookie)
	if err != nil {
		return "", "", false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			return raw[:i], raw[i+1:], true
		}
	}
	return "", "", false
}

// handleSync runs a full voucher sync for the user and reports the summary.
func (s *Server) handleSync(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), syncTimeout)
	defer cancel()

	summary, err := s.syncer.Sync(ctx, userID)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, services.ErrNoCompany), errors.Is(err, services.ErrNoIntegration):
			status = http.StatusConflict
		case errors.Is(err, services.ErrRefreshRejected):
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// handleDisconnect deactivates the user's integration.
func (s *Server) handleDisconnect(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	integration, err := s.store.GetActiveIntegration(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if integration == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not connected"})
		return
	}

	if err := s.store.DeactivateIntegration(integration.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": false})
}

// handleStatus reports whether the user is connected and when they last
// synced.
func (s *Server) handleStatus(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	integration, err := s.store.GetActiveIntegration(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if integration == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":    true,
		"hasSynced":    integration.HasSynced,
		"lastSyncedAt": integration.LastSyncedAt,
	})
}

// handleKPI serves one monthly metric series for a company.
func (s *Server) handleKPI(c *gin.Context) {
	kind, ok := models.ParseMetricKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric kind"})
		return
	}
	companyID := c.Query("company")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing company"})
		return
	}

	points, err := s.store.MonthlyMetrics(companyID, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if points == nil {
		points = []models.MetricPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "points": points})
}

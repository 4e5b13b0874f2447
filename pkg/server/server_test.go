package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/solvik/fortnox-sync/db"
	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/models"
	"github.com/solvik/fortnox-sync/pkg/ratelimit"
	"github.com/solvik/fortnox-sync/pkg/services"
)

// newTestServer wires the HTTP layer to a mock store and a real Fortnox
// client pointed at the given stand-in. The syncer talks to the mock API so
// sync tests need no HTTP fixture.
func newTestServer(t *testing.T, store *db.MockStore, api *fortnox.MockAPI, fortnoxHandler http.Handler) *Server {
	t.Helper()

	if fortnoxHandler == nil {
		fortnoxHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	upstream := httptest.NewServer(fortnoxHandler)
	t.Cleanup(upstream.Close)

	client := fortnox.NewClient(fortnox.Options{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "http://localhost/api/fortnox/callback",
		Scopes:       []string{"bookkeeping"},
		APIBaseURL:   upstream.URL,
		AuthBaseURL:  upstream.URL,
		Limiter: ratelimit.New(ratelimit.Options{
			Sleep: func(ctx context.Context, d time.Duration) error { return nil },
		}),
	})

	syncer := services.NewVoucherSyncer(store, api, 1)
	return New(store, client, syncer)
}

func TestConnectRedirects(t *testing.T) {
	store := db.NewMockStore()
	srv := newTestServer(t, store, fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/fortnox/connect?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "/auth?") || !strings.Contains(location, "client_id=test-client") {
		t.Errorf("Unexpected redirect target: %s", location)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "fortnox_oauth_state" {
		t.Fatalf("Expected a state cookie, got %v", cookies)
	}
	value, err := url.QueryUnescape(cookies[0].Value)
	if err != nil {
		t.Fatalf("Failed to unescape cookie: %v", err)
	}
	if !strings.HasSuffix(value, ":user-1") {
		t.Errorf("Expected the cookie to carry the user id, got %s", value)
	}
}

func TestConnectMissingUser(t *testing.T) {
	srv := newTestServer(t, db.NewMockStore(), fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/fortnox/connect", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestCallbackStateMismatch(t *testing.T) {
	srv := newTestServer(t, db.NewMockStore(), fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/fortnox/callback?code=abc&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: "fortnox_oauth_state", Value: "genuine:user-1"})
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 on state mismatch, got %d", rec.Code)
	}
}

func TestCallbackMissingCookie(t *testing.T) {
	srv := newTestServer(t, db.NewMockStore(), fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/fortnox/callback?code=abc&state=genuine", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a state cookie, got %d", rec.Code)
	}
}

func TestCallbackStoresIntegrationAndCompany(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			json.NewEncoder(w).Encode(fortnox.TokenResponse{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				Scope:        "bookkeeping",
				ExpiresIn:    3600,
			})
		case "/companyinformation":
			json.NewEncoder(w).Encode(map[string]any{
				"CompanyInformation": fortnox.CompanyInformation{
					CompanyName:        "Acme AB",
					OrganizationNumber: "556000-0000",
				},
			})
		default:
			t.Errorf("Unexpected upstream path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	store := db.NewMockStore()
	srv := newTestServer(t, store, fortnox.NewMockAPI(), upstream)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/fortnox/callback?code=auth-code&state=genuine", nil)
	req.AddCookie(&http.Cookie{Name: "fortnox_oauth_state", Value: "genuine:user-1"})
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	integration, _ := store.GetActiveIntegration("user-1")
	if integration == nil {
		t.Fatalf("Expected an integration stored")
	}
	if integration.AccessToken != "access-1" || integration.RefreshToken != "refresh-1" {
		t.Errorf("Unexpected tokens stored: %+v", integration)
	}

	company, _ := store.GetCompanyByUser("user-1")
	if company == nil || company.Name != "Acme AB" {
		t.Errorf("Expected the company record seeded, got %+v", company)
	}
}

func TestSyncEndpoint(t *testing.T) {
	store := db.NewMockStore()
	store.UpsertCompany(&models.Company{ID: "co-1", UserID: "user-1", Name: "Acme AB"})
	store.SaveIntegration(&models.Integration{
		UserID:       "user-1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	api := fortnox.NewMockAPI()
	api.Headers = []fortnox.VoucherHeader{{VoucherSeries: "A", VoucherNumber: 1, Year: 1}}
	api.Details["A-1-1"] = &fortnox.VoucherDetail{
		VoucherSeries: "A", VoucherNumber: 1, Year: 1,
		TransactionDate: "2025-01-15",
		VoucherRows:     []fortnox.VoucherRowData{{Account: 3001}},
	}

	srv := newTestServer(t, store, api, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fortnox/sync?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary models.SyncSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to parse summary: %v", err)
	}
	if summary.Status != models.SyncCompleted || summary.Vouchers != 1 || summary.Rows != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestSyncEndpointNotConnected(t *testing.T) {
	store := db.NewMockStore()
	store.UpsertCompany(&models.Company{ID: "co-1", UserID: "user-1"})
	srv := newTestServer(t, store, fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fortnox/sync?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 when not connected, got %d", rec.Code)
	}
}

func TestSyncEndpointRefreshRejected(t *testing.T) {
	store := db.NewMockStore()
	store.UpsertCompany(&models.Company{ID: "co-1", UserID: "user-1"})
	store.SaveIntegration(&models.Integration{
		UserID:       "user-1",
		AccessToken:  "stale",
		RefreshToken: "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	api := fortnox.NewMockAPI()
	api.RefreshErr = &fortnox.TokenError{StatusCode: 400, Body: `{"error":"invalid_grant"}`}
	srv := newTestServer(t, store, api, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fortnox/sync?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 on a rejected refresh, got %d", rec.Code)
	}
}

func TestStatusAndDisconnect(t *testing.T) {
	store := db.NewMockStore()
	srv := newTestServer(t, store, fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/fortnox/status?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"connected":false`) {
		t.Errorf("Expected disconnected status, got %d: %s", rec.Code, rec.Body.String())
	}

	store.SaveIntegration(&models.Integration{
		UserID:       "user-1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/fortnox/status?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"connected":true`) {
		t.Errorf("Expected connected status, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/fortnox/disconnect?user=user-1", nil)
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on disconnect, got %d", rec.Code)
	}

	integration, _ := store.GetActiveIntegration("user-1")
	if integration != nil {
		t.Errorf("Expected no active integration after disconnect")
	}
}

func TestKPIUnknownKind(t *testing.T) {
	srv := newTestServer(t, db.NewMockStore(), fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/kpi/ebitda?company=co-1", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown metric kind, got %d", rec.Code)
	}
}

func TestKPIEmptySeries(t *testing.T) {
	srv := newTestServer(t, db.NewMockStore(), fortnox.NewMockAPI(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/kpi/revenue?company=co-1", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"points":[]`) {
		t.Errorf("Expected an empty points array, got %s", rec.Body.String())
	}
}

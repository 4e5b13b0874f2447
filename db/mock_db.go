package db

import (
	"fmt"
	"time"

	"github.com/solvik/fortnox-sync/pkg/models"
)

// MockStore is a mock implementation of the Store for testing
type MockStore struct {
	// Mock data storage
	Integrations map[string]*models.Integration // keyed by user id
	Companies    map[string]*models.Company     // keyed by user id
	FiscalYears  map[string]*models.FiscalYear  // keyed by company id + fortnox id
	Vouchers     map[string]*models.Voucher     // keyed by voucher id
	VoucherRows  map[string]*models.VoucherRow  // keyed by row id

	// Error values to return
	GetActiveIntegrationErr    error
	SaveIntegrationErr         error
	UpdateIntegrationTokensErr error
	MarkIntegrationSyncedErr   error
	GetCompanyByUserErr        error
	UpsertFiscalYearErr        error
	UpsertVouchersErr          error
	ReplaceVoucherRowsErr      error

	nextID int64
}

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		Integrations: make(map[string]*models.Integration),
		Companies:    make(map[string]*models.Company),
		FiscalYears:  make(map[string]*models.FiscalYear),
		Vouchers:     make(map[string]*models.Voucher),
		VoucherRows:  make(map[string]*models.VoucherRow),
		nextID:       1,
	}
}

func (m *MockStore) Initialize() error { return nil }
func (m *MockStore) Close() error      { return nil }

// GetActiveIntegration returns the mock integration for a user
func (m *MockStore) GetActiveIntegration(userID string) (*models.Integration, error) {
	if m.GetActiveIntegrationErr != nil {
		return nil, m.GetActiveIntegrationErr
	}
	integration, ok := m.Integrations[userID]
	if !ok || !integration.IsActive {
		return nil, nil
	}
	return integration, nil
}

// SaveIntegration stores a mock integration
func (m *MockStore) SaveIntegration(integration *models.Integration) error {
	if m.SaveIntegrationErr != nil {
		return m.SaveIntegrationErr
	}
	integration.ID = m.nextID
	m.nextID++
	integration.IsActive = true
	m.Integrations[integration.UserID] = integration
	return nil
}

// UpdateIntegrationTokens updates the stored token pair
func (m *MockStore) UpdateIntegrationTokens(id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	if m.UpdateIntegrationTokensErr != nil {
		return m.UpdateIntegrationTokensErr
	}
	for _, integration := range m.Integrations {
		if integration.ID == id {
			integration.AccessToken = accessToken
			integration.RefreshToken = refreshToken
			integration.ExpiresAt = expiresAt
			return nil
		}
	}
	return fmt.Errorf("no integration found with id: %d", id)
}

// MarkIntegrationSynced flags the stored integration as synced
func (m *MockStore) MarkIntegrationSynced(id int64, at time.Time) error {
	if m.MarkIntegrationSyncedErr != nil {
		return m.MarkIntegrationSyncedErr
	}
	for _, integration := range m.Integrations {
		if integration.ID == id {
			integration.HasSynced = true
			integration.LastSyncedAt = &at
			return nil
		}
	}
	return fmt.Errorf("no integration found with id: %d", id)
}

// DeactivateIntegration clears the active flag
func (m *MockStore) DeactivateIntegration(id int64) error {
	for _, integration := range m.Integrations {
		if integration.ID == id {
			integration.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("no integration found with id: %d", id)
}

// GetCompanyByUser returns the mock company for a user
func (m *MockStore) GetCompanyByUser(userID string) (*models.Company, error) {
	if m.GetCompanyByUserErr != nil {
		return nil, m.GetCompanyByUserErr
	}
	return m.Companies[userID], nil
}

// UpsertCompany stores a mock company
func (m *MockStore) UpsertCompany(company *models.Company) error {
	m.Companies[company.UserID] = company
	return nil
}

// UpsertFiscalYear stores a mock fiscal year
func (m *MockStore) UpsertFiscalYear(year *models.FiscalYear) error {
	if m.UpsertFiscalYearErr != nil {
		return m.UpsertFiscalYearErr
	}
	m.FiscalYears[fmt.Sprintf("%s-%d", year.CompanyID, year.FortnoxID)] = year
	return nil
}

// GetFiscalYears lists the mock fiscal years of a company
func (m *MockStore) GetFiscalYears(companyID string) ([]*models.FiscalYear, error) {
	var years []*models.FiscalYear
	for _, year := range m.FiscalYears {
		if year.CompanyID == companyID {
			years = append(years, year)
		}
	}
	return years, nil
}

// UpsertVouchers stores a mock voucher batch keyed on voucher id
func (m *MockStore) UpsertVouchers(vouchers []*models.Voucher) error {
	if m.UpsertVouchersErr != nil {
		return m.UpsertVouchersErr
	}
	for _, v := range vouchers {
		m.Vouchers[v.VoucherID] = v
	}
	return nil
}

// ReplaceVoucherRows replaces the stored lines of each keyed voucher
func (m *MockStore) ReplaceVoucherRows(rowsByVoucher map[string][]*models.VoucherRow) error {
	if m.ReplaceVoucherRowsErr != nil {
		return m.ReplaceVoucherRowsErr
	}
	for voucherID, rows := range rowsByVoucher {
		for id, existing := range m.VoucherRows {
			if existing.VoucherID == voucherID {
				delete(m.VoucherRows, id)
			}
		}
		for _, row := range rows {
			m.VoucherRows[row.RowID] = row
		}
	}
	return nil
}

// GetVouchers lists the mock vouchers of a company
func (m *MockStore) GetVouchers(companyID string) ([]*models.Voucher, error) {
	var vouchers []*models.Voucher
	for _, v := range m.Vouchers {
		if v.CompanyID == companyID {
			vouchers = append(vouchers, v)
		}
	}
	return vouchers, nil
}

// GetVoucherRows lists the mock lines of a voucher
func (m *MockStore) GetVoucherRows(voucherID string) ([]*models.VoucherRow, error) {
	var rows []*models.VoucherRow
	for _, row := range m.VoucherRows {
		if row.VoucherID == voucherID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// CountVouchers counts the mock vouchers of a company
func (m *MockStore) CountVouchers(companyID string) (int, error) {
	vouchers, _ := m.GetVouchers(companyID)
	return len(vouchers), nil
}

// CountVoucherRows counts the mock lines of a company
func (m *MockStore) CountVoucherRows(companyID string) (int, error) {
	count := 0
	for _, row := range m.VoucherRows {
		if v, ok := m.Vouchers[row.VoucherID]; ok && v.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

// MonthlyMetrics is not exercised through the mock
func (m *MockStore) MonthlyMetrics(companyID string, kind models.MetricKind) ([]models.MetricPoint, error) {
	return nil, nil
}

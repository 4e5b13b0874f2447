package fortnox

import (
	"context"
	"fmt"
	"sync"
)

// MockAPI is a mock implementation of the Fortnox API for testing. The
// syncer fans detail fetches out over a worker pool, so the mock guards its
// state for use at any pool width.
type MockAPI struct {
	mu sync.Mutex

	// Mock data to return
	Tokens      *TokenResponse
	Headers     []VoucherHeader
	Details     map[string]*VoucherDetail // keyed by "SERIES-YEAR-NUMBER"
	FiscalYears []FinancialYear
	Company     *CompanyInformation

	// Error values to return
	RefreshErr     error
	HeadersErr     error
	DetailErr      error
	FiscalYearsErr error
	CompanyErr     error

	// Call counters
	RefreshCalls int
	HeaderCalls  int
	DetailCalls  int
}

// NewMockAPI creates a new mock Fortnox client
func NewMockAPI() *MockAPI {
	return &MockAPI{
		Details: make(map[string]*VoucherDetail),
	}
}

// RefreshAccessToken returns the mock token pair
func (m *MockAPI) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.Tokens, nil
}

// FetchVoucherHeaders returns the mock voucher headers
func (m *MockAPI) FetchVoucherHeaders(ctx context.Context, accessToken string) ([]VoucherHeader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeaderCalls++
	if m.HeadersErr != nil {
		return nil, m.HeadersErr
	}
	return m.Headers, nil
}

// FetchVoucherDetail returns the mock detail for the requested natural key
func (m *MockAPI) FetchVoucherDetail(ctx context.Context, accessToken, series string, number, year int) (*VoucherDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DetailCalls++
	if m.DetailErr != nil {
		return nil, m.DetailErr
	}
	detail, ok := m.Details[fmt.Sprintf("%s-%d-%d", series, year, number)]
	if !ok {
		return nil, &APIError{StatusCode: 404, Body: "voucher not found"}
	}
	return detail, nil
}

// FetchFiscalYears returns the mock fiscal years
func (m *MockAPI) FetchFiscalYears(ctx context.Context, accessToken string) ([]FinancialYear, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FiscalYearsErr != nil {
		return nil, m.FiscalYearsErr
	}
	return m.FiscalYears, nil
}

// FetchCompanyInformation returns the mock company record
func (m *MockAPI) FetchCompanyInformation(ctx context.Context, accessToken string) (*CompanyInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CompanyErr != nil {
		return nil, m.CompanyErr
	}
	return m.Company, nil
}

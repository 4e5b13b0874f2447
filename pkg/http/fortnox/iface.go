package fortnox

import "context"

// API defines the interface for Fortnox operations the sync pipeline needs
type API interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	FetchVoucherHeaders(ctx context.Context, accessToken string) ([]VoucherHeader, error)
	FetchVoucherDetail(ctx context.Context, accessToken, series string, number, year int) (*VoucherDetail, error)
	FetchFiscalYears(ctx context.Context, accessToken string) ([]FinancialYear, error)
	FetchCompanyInformation(ctx context.Context, accessToken string) (*CompanyInformation, error)
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// Ensure MockAPI implements API
var _ API = (*MockAPI)(nil)

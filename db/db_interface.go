package db

import (
	"time"

	"github.com/solvik/fortnox-sync/pkg/models"
)

// Store defines the interface for database operations
type Store interface {
	Initialize() error
	Close() error

	GetActiveIntegration(userID string) (*models.Integration, error)
	SaveIntegration(integration *models.Integration) error
	UpdateIntegrationTokens(id int64, accessToken, refreshToken string, expiresAt time.Time) error
	MarkIntegrationSynced(id int64, at time.Time) error
	DeactivateIntegration(id int64) error

	GetCompanyByUser(userID string) (*models.Company, error)
	UpsertCompany(company *models.Company) error
	UpsertFiscalYear(year *models.FiscalYear) error
	GetFiscalYears(companyID string) ([]*models.FiscalYear, error)

	UpsertVouchers(vouchers []*models.Voucher) error
	ReplaceVoucherRows(rowsByVoucher map[string][]*models.VoucherRow) error
	GetVouchers(companyID string) ([]*models.Voucher, error)
	GetVoucherRows(voucherID string) ([]*models.VoucherRow, error)
	CountVouchers(companyID string) (int, error)
	CountVoucherRows(companyID string) (int, error)

	MonthlyMetrics(companyID string, kind models.MetricKind) ([]models.MetricPoint, error)
}

// Ensure DB implements Store
var _ Store = (*DB)(nil)

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)

package services

import (
	"github.com/samber/lo"

	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/models"
)

// buildVoucher maps one Fortnox voucher detail onto the storage model: one
// voucher row plus one line per transaction, with deterministic ids so the
// upserts stay idempotent across runs.
func buildVoucher(companyID string, detail *fortnox.VoucherDetail) (*models.Voucher, []*models.VoucherRow) {
	voucherID := models.VoucherID(detail.VoucherSeries, detail.Year, detail.VoucherNumber)

	voucher := &models.Voucher{
		VoucherID:       voucherID,
		CompanyID:       companyID,
		VoucherSeries:   detail.VoucherSeries,
		VoucherNumber:   detail.VoucherNumber,
		Year:            detail.Year,
		TransactionDate: detail.TransactionDate,
		Description:     detail.Description,
		Comments:        detail.Comments,
		ApprovalState:   detail.ApprovalState,
		CostCenter:      detail.CostCenter,
		Project:         detail.Project,
		ReferenceNumber: detail.ReferenceNumber,
		ReferenceType:   detail.ReferenceType,
	}

	rows := lo.Map(detail.VoucherRows, func(line fortnox.VoucherRowData, idx int) *models.VoucherRow {
		position := idx + 1
		return &models.VoucherRow{
			RowID:                  models.VoucherRowID(voucherID, position),
			VoucherID:              voucherID,
			Position:               position,
			Account:                line.Account,
			Debit:                  line.Debit,
			Credit:                 line.Credit,
			Description:            line.Description,
			TransactionInformation: line.TransactionInformation,
			Quantity:               line.Quantity,
			CostCenter:             line.CostCenter,
			Project:                line.Project,
			Removed:                line.Removed,
		}
	})

	return voucher, rows
}

// buildFiscalYear maps a Fortnox financial year onto the storage model.
func buildFiscalYear(id, companyID string, year fortnox.FinancialYear) *models.FiscalYear {
	return &models.FiscalYear{
		ID:               id,
		CompanyID:        companyID,
		FortnoxID:        year.ID,
		FromDate:         year.FromDate,
		ToDate:           year.ToDate,
		AccountingMethod: year.AccountingMethod,
		AccountChartType: year.AccountChartType,
		IsActive:         year.Active != nil && *year.Active,
	}
}

package models

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Voucher is one ledger entry pulled from Fortnox. Its natural key is
// (series, year, number); VoucherID is the deterministic string form of that
// key so re-running a sync overwrites instead of duplicating.
type Voucher struct {
	VoucherID       string `json:"voucherId"`
	CompanyID       string `json:"companyId"`
	VoucherSeries   string `json:"voucherSeries"`
	VoucherNumber   int    `json:"voucherNumber"`
	Year            int    `json:"year"`
	TransactionDate string `json:"transactionDate"` // yyyy-MM-dd
	Description     string `json:"description"`
	Comments        string `json:"comments"`
	ApprovalState   int    `json:"approvalState"`
	CostCenter      string `json:"costCenter"`
	Project         string `json:"project"`
	ReferenceNumber string `json:"referenceNumber"`
	ReferenceType   string `json:"referenceType"`
}

// VoucherRow is one debit/credit line of a voucher. RowID is synthesized
// from the parent voucher id and the 1-based line position; the store
// replaces a voucher's rows wholesale so positional ids cannot leave stale
// lines behind when Fortnox reorders or removes them.
type VoucherRow struct {
	RowID                  string          `json:"rowId"`
	VoucherID              string          `json:"voucherId"`
	Position               int             `json:"position"`
	Account                int             `json:"account"`
	Debit                  decimal.Decimal `json:"debit"`
	Credit                 decimal.Decimal `json:"credit"`
	Description            string          `json:"description"`
	TransactionInformation string          `json:"transactionInformation"`
	Quantity               decimal.Decimal `json:"quantity"`
	CostCenter             string          `json:"costCenter"`
	Project                string          `json:"project"`
	Removed                bool            `json:"removed"`
}

// VoucherID builds the deterministic id for a voucher's natural key.
func VoucherID(series string, year, number int) string {
	return fmt.Sprintf("%s-%d-%d", series, year, number)
}

// VoucherRowID builds the synthesized id for a line at a 1-based position.
func VoucherRowID(voucherID string, position int) string {
	return fmt.Sprintf("%s-%d", voucherID, position)
}

// DebitMoney returns the debit amount as SEK money for display.
func (r *VoucherRow) DebitMoney() *money.Money {
	return decimalToMoney(r.Debit)
}

// CreditMoney returns the credit amount as SEK money for display.
func (r *VoucherRow) CreditMoney() *money.Money {
	return decimalToMoney(r.Credit)
}

func decimalToMoney(d decimal.Decimal) *money.Money {
	minor := d.Shift(int32(money.GetCurrency(money.SEK).Fraction)).Round(0)
	return money.New(minor.IntPart(), money.SEK)
}

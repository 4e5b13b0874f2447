package fortnox

import "github.com/shopspring/decimal"

// MetaInformation is Fortnox's pagination envelope. The "@" keys are as the
// API sends them.
type MetaInformation struct {
	TotalPages     int `json:"@TotalPages"`
	TotalResources int `json:"@TotalResources"`
	CurrentPage    int `json:"@CurrentPage"`
}

// VoucherHeader is the lightweight list form of a voucher, just enough to
// drive the detail fetch.
type VoucherHeader struct {
	VoucherSeries string `json:"VoucherSeries"`
	VoucherNumber int    `json:"VoucherNumber"`
	Year          int    `json:"Year"`
}

// VoucherDetail is the full voucher as returned by the detail endpoint.
type VoucherDetail struct {
	VoucherSeries   string          `json:"VoucherSeries"`
	VoucherNumber   int             `json:"VoucherNumber"`
	Year            int             `json:"Year"`
	TransactionDate string          `json:"TransactionDate"`
	Description     string          `json:"Description"`
	Comments        string          `json:"Comments"`
	ApprovalState   int             `json:"ApprovalState"`
	CostCenter      string          `json:"CostCenter"`
	Project         string          `json:"Project"`
	ReferenceNumber string          `json:"ReferenceNumber"`
	ReferenceType   string          `json:"ReferenceType"`
	VoucherRows     []VoucherRowData `json:"VoucherRows"`
}

// VoucherRowData is one debit/credit line inside a voucher detail.
type VoucherRowData struct {
	Account                int             `json:"Account"`
	Debit                  decimal.Decimal `json:"Debit"`
	Credit                 decimal.Decimal `json:"Credit"`
	Description            string          `json:"Description"`
	TransactionInformation string          `json:"TransactionInformation"`
	Quantity               decimal.Decimal `json:"Quantity"`
	CostCenter             string          `json:"CostCenter"`
	Project                string          `json:"Project"`
	Removed                bool            `json:"Removed"`
}

type voucherDetailResponse struct {
	Voucher VoucherDetail `json:"Voucher"`
}

// FinancialYear is one accounting period. Active is only present when the
// company has more than one year; a single-entry response is implicitly
// active.
type FinancialYear struct {
	ID               int    `json:"Id"`
	FromDate         string `json:"FromDate"`
	ToDate           string `json:"ToDate"`
	AccountChartType string `json:"AccountChartType"`
	AccountingMethod string `json:"AccountingMethod"`
	Active           *bool  `json:"Active"`
}

type financialYearsResponse struct {
	FinancialYears []FinancialYear `json:"FinancialYears"`
}

// CompanyInformation is the company master data record.
type CompanyInformation struct {
	CompanyName        string `json:"CompanyName"`
	OrganizationNumber string `json:"OrganizationNumber"`
	DatabaseNumber     int    `json:"DatabaseNumber"`
	Address            string `json:"Address"`
	City               string `json:"City"`
	Phone              string `json:"Phone"`
}

type companyInformationResponse struct {
	CompanyInformation CompanyInformation `json:"CompanyInformation"`
}

package models

// Company is the tenant a sync run operates on.
type Company struct {
	ID                 string `json:"id"`
	UserID             string `json:"userId"`
	Name               string `json:"name"`
	OrganisationNumber string `json:"organisationNumber"`
}

// FiscalYear is one accounting period of a company. Rows are created when
// first observed during a sync and never updated afterwards.
type FiscalYear struct {
	ID               string `json:"id"`
	CompanyID        string `json:"companyId"`
	FortnoxID        int    `json:"fortnoxId"`
	FromDate         string `json:"fromDate"` // yyyy-MM-dd
	ToDate           string `json:"toDate"`   // yyyy-MM-dd
	AccountingMethod string `json:"accountingMethod"`
	AccountChartType string `json:"accountChartType"`
	IsActive         bool   `json:"isActive"`
}

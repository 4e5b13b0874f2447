package db

import (
	"database/sql"
	"fmt"

	"github.com/solvik/fortnox-sync/pkg/models"
)

// GetCompanyByUser retrieves a user's company. Returns (nil, nil) when no
// company record exists yet.
func (db *DB) GetCompanyByUser(userID string) (*models.Company, error) {
	query := `
	SELECT id, user_id, name, organisation_number
	FROM companies
	WHERE user_id = ?
	LIMIT 1
	`

	company := &models.Company{}
	var orgNumber sql.NullString
	err := db.QueryRow(query, userID).Scan(
		&company.ID,
		&company.UserID,
		&company.Name,
		&orgNumber,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	company.OrganisationNumber = orgNumber.String
	return company, nil
}

// UpsertCompany creates or refreshes a company record keyed on the user.
func (db *DB) UpsertCompany(company *models.Company) error {
	_, err := db.Exec(
		`INSERT INTO companies (id, user_id, name, organisation_number)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			organisation_number = excluded.organisation_number,
			updated_at = CURRENT_TIMESTAMP`,
		company.ID, company.UserID, company.Name, company.OrganisationNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

// UpsertFiscalYear records an accounting period when first observed. An
// existing (company, fortnox id) pair only has its active flag refreshed.
func (db *DB) UpsertFiscalYear(year *models.FiscalYear) error {
	_, err := db.Exec(
		`INSERT INTO fiscal_years
			(id, company_id, fortnox_id, from_date, to_date, accounting_method, account_chart_type, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(company_id, fortnox_id) DO UPDATE SET
			is_active = excluded.is_active`,
		year.ID, year.CompanyID, year.FortnoxID, year.FromDate, year.ToDate,
		year.AccountingMethod, year.AccountChartType, year.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fiscal year: %w", err)
	}
	return nil
}

// GetFiscalYears lists a company's accounting periods, newest first.
func (db *DB) GetFiscalYears(companyID string) ([]*models.FiscalYear, error) {
	query := `
	SELECT id, company_id, fortnox_id, from_date, to_date,
		accounting_method, account_chart_type, is_active
	FROM fiscal_years
	WHERE company_id = ?
	ORDER BY from_date DESC
	`

	rows, err := db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fiscal years: %w", err)
	}
	defer rows.Close()

	var years []*models.FiscalYear
	for rows.Next() {
		year := &models.FiscalYear{}
		var method, chartType sql.NullString
		if err := rows.Scan(
			&year.ID,
			&year.CompanyID,
			&year.FortnoxID,
			&year.FromDate,
			&year.ToDate,
			&method,
			&chartType,
			&year.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fiscal year: %w", err)
		}
		year.AccountingMethod = method.String
		year.AccountChartType = chartType.String
		years = append(years, year)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fiscal years: %w", err)
	}
	return years, nil
}

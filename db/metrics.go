package db

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/solvik/fortnox-sync/pkg/models"
)

// Account intervals follow the BAS chart: 3xxx is revenue, 4xxx cost of
// goods, 4xxx-7xxx operating costs.
const (
	revenueLow  = 3000
	revenueHigh = 3999
	cogsHigh    = 4999
	costsHigh   = 7999
)

// MonthlyMetrics aggregates a KPI series per month over the synced voucher
// rows of a company. Removed lines are excluded.
func (db *DB) MonthlyMetrics(companyID string, kind models.MetricKind) ([]models.MetricPoint, error) {
	var expr string
	switch kind {
	case models.MetricRevenue:
		expr = fmt.Sprintf(
			`SUM(CASE WHEN r.account BETWEEN %d AND %d THEN r.credit - r.debit ELSE 0 END)`,
			revenueLow, revenueHigh)
	case models.MetricCosts:
		expr = fmt.Sprintf(
			`SUM(CASE WHEN r.account BETWEEN %d AND %d THEN r.debit - r.credit ELSE 0 END)`,
			revenueHigh+1, costsHigh)
	case models.MetricProfit:
		expr = fmt.Sprintf(
			`SUM(CASE WHEN r.account BETWEEN %d AND %d THEN r.credit - r.debit ELSE 0 END)`,
			revenueLow, costsHigh)
	case models.MetricGrossMargin:
		expr = fmt.Sprintf(
			`SUM(CASE WHEN r.account BETWEEN %d AND %d THEN r.credit - r.debit ELSE 0 END)`,
			revenueLow, cogsHigh)
	default:
		return nil, fmt.Errorf("unknown metric kind: %s", kind)
	}

	query := fmt.Sprintf(`
	SELECT substr(v.transaction_date, 1, 7) AS month, %s
	FROM fortnox_voucher_rows r
	JOIN fortnox_vouchers v ON v.voucher_id = r.voucher_id
	WHERE v.company_id = ? AND r.removed = 0 AND v.transaction_date != ''
	GROUP BY month
	ORDER BY month
	`, expr)

	rows, err := db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var points []models.MetricPoint
	for rows.Next() {
		var month string
		var value float64
		if err := rows.Scan(&month, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric point: %w", err)
		}
		points = append(points, models.MetricPoint{
			Kind:  kind,
			Month: month,
			Value: decimal.NewFromFloat(value),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric points: %w", err)
	}
	return points, nil
}

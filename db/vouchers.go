package db

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/solvik/fortnox-sync/pkg/models"
)

// UpsertVouchers writes a voucher batch keyed on the natural voucher id.
// Re-running a sync overwrites the same rows instead of duplicating them.
func (db *DB) UpsertVouchers(vouchers []*models.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO fortnox_vouchers (
		voucher_id, company_id, voucher_series, voucher_number, year,
		transaction_date, description, comments, approval_state,
		cost_center, project, reference_number, reference_type
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(voucher_id) DO UPDATE SET
		transaction_date = excluded.transaction_date,
		description = excluded.description,
		comments = excluded.comments,
		approval_state = excluded.approval_state,
		cost_center = excluded.cost_center,
		project = excluded.project,
		reference_number = excluded.reference_number,
		reference_type = excluded.reference_type,
		updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare voucher upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range vouchers {
		if _, err := stmt.Exec(
			v.VoucherID, v.CompanyID, v.VoucherSeries, v.VoucherNumber, v.Year,
			v.TransactionDate, v.Description, v.Comments, v.ApprovalState,
			v.CostCenter, v.Project, v.ReferenceNumber, v.ReferenceType,
		); err != nil {
			return fmt.Errorf("failed to upsert voucher %s: %w", v.VoucherID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vouchers: %w", err)
	}
	return nil
}

// ReplaceVoucherRows writes the lines of each voucher in the batch, keyed by
// voucher id. Every keyed voucher has its lines deleted and reinserted inside
// one transaction, so a reordered, shrunk or emptied voucher cannot leave
// stale positional rows behind.
func (db *DB) ReplaceVoucherRows(rowsByVoucher map[string][]*models.VoucherRow) error {
	if len(rowsByVoucher) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for voucherID := range rowsByVoucher {
		if _, err := tx.Exec(
			`DELETE FROM fortnox_voucher_rows WHERE voucher_id = ?`, voucherID,
		); err != nil {
			return fmt.Errorf("failed to clear rows for %s: %w", voucherID, err)
		}
	}

	stmt, err := tx.Prepare(`
	INSERT INTO fortnox_voucher_rows (
		row_id, voucher_id, position, account, debit, credit,
		description, transaction_information, quantity,
		cost_center, project, removed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, rows := range rowsByVoucher {
		for _, row := range rows {
			if _, err := stmt.Exec(
				row.RowID, row.VoucherID, row.Position, row.Account,
				row.Debit.String(), row.Credit.String(),
				row.Description, row.TransactionInformation, row.Quantity.String(),
				row.CostCenter, row.Project, row.Removed,
			); err != nil {
				return fmt.Errorf("failed to insert row %s: %w", row.RowID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit voucher rows: %w", err)
	}
	return nil
}

// GetVouchers retrieves a company's vouchers, newest first.
func (db *DB) GetVouchers(companyID string) ([]*models.Voucher, error) {
	query := `
	SELECT voucher_id, company_id, voucher_series, voucher_number, year,
		transaction_date, description, comments, approval_state,
		cost_center, project, reference_number, reference_type
	FROM fortnox_vouchers
	WHERE company_id = ?
	ORDER BY transaction_date DESC, voucher_id
	`

	rows, err := db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*models.Voucher
	for rows.Next() {
		v := &models.Voucher{}
		var txDate, description, comments, costCenter sql.NullString
		var project, refNumber, refType sql.NullString
		var approvalState sql.NullInt64
		if err := rows.Scan(
			&v.VoucherID, &v.CompanyID, &v.VoucherSeries, &v.VoucherNumber, &v.Year,
			&txDate, &description, &comments, &approvalState,
			&costCenter, &project, &refNumber, &refType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		v.TransactionDate = txDate.String
		v.Description = description.String
		v.Comments = comments.String
		v.ApprovalState = int(approvalState.Int64)
		v.CostCenter = costCenter.String
		v.Project = project.String
		v.ReferenceNumber = refNumber.String
		v.ReferenceType = refType.String
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}
	return vouchers, nil
}

// GetVoucherRows retrieves the lines of one voucher in position order.
func (db *DB) GetVoucherRows(voucherID string) ([]*models.VoucherRow, error) {
	query := `
	SELECT row_id, voucher_id, position, account, debit, credit,
		description, transaction_information, quantity,
		cost_center, project, removed
	FROM fortnox_voucher_rows
	WHERE voucher_id = ?
	ORDER BY position
	`

	rows, err := db.Query(query, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query voucher rows: %w", err)
	}
	defer rows.Close()

	var result []*models.VoucherRow
	for rows.Next() {
		row := &models.VoucherRow{}
		var debit, credit, quantity string
		var description, txInfo, costCenter, project sql.NullString
		if err := rows.Scan(
			&row.RowID, &row.VoucherID, &row.Position, &row.Account,
			&debit, &credit, &description, &txInfo, &quantity,
			&costCenter, &project, &row.Removed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan voucher row: %w", err)
		}
		if row.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("bad debit amount on %s: %w", row.RowID, err)
		}
		if row.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("bad credit amount on %s: %w", row.RowID, err)
		}
		if row.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("bad quantity on %s: %w", row.RowID, err)
		}
		row.Description = description.String
		row.TransactionInformation = txInfo.String
		row.CostCenter = costCenter.String
		row.Project = project.String
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voucher rows: %w", err)
	}
	return result, nil
}

// CountVouchers returns the number of stored vouchers for a company.
func (db *DB) CountVouchers(companyID string) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM fortnox_vouchers WHERE company_id = ?`, companyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vouchers: %w", err)
	}
	return count, nil
}

// CountVoucherRows returns the number of stored lines for a company.
func (db *DB) CountVoucherRows(companyID string) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*)
		 FROM fortnox_voucher_rows r
		 JOIN fortnox_vouchers v ON v.voucher_id = r.voucher_id
		 WHERE v.company_id = ?`, companyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count voucher rows: %w", err)
	}
	return count, nil
}

package fortnox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// FetchVoucherHeaders pulls the complete voucher list, following pagination
// until the reported page count is exhausted.
func (c *Client) FetchVoucherHeaders(ctx context.Context, accessToken string) ([]VoucherHeader, error) {
	return fetchAll[VoucherHeader](ctx, c, accessToken, "/vouchers", "Vouchers")
}

// FetchVoucherDetail fetches one voucher with its rows.
func (c *Client) FetchVoucherDetail(ctx context.Context, accessToken, series string, number, year int) (*VoucherDetail, error) {
	u := fmt.Sprintf("%s/vouchers/%s/%d?financialyear=%d",
		c.apiBase, url.PathEscape(series), number, year)

	var parsed voucherDetailResponse
	if err := c.getJSON(ctx, u, accessToken, &parsed); err != nil {
		return nil, err
	}
	return &parsed.Voucher, nil
}

// FetchFiscalYears lists the company's accounting periods. When the response
// holds a single year Fortnox omits the Active flag, so that year is treated
// as active.
func (c *Client) FetchFiscalYears(ctx context.Context, accessToken string) ([]FinancialYear, error) {
	var parsed financialYearsResponse
	if err := c.getJSON(ctx, c.apiBase+"/financialyears", accessToken, &parsed); err != nil {
		return nil, err
	}

	years := parsed.FinancialYears
	if len(years) == 1 && years[0].Active == nil {
		active := true
		years[0].Active = &active
	}
	return years, nil
}

// FetchCompanyInformation fetches the company master data record.
func (c *Client) FetchCompanyInformation(ctx context.Context, accessToken string) (*CompanyInformation, error) {
	var parsed companyInformationResponse
	if err := c.getJSON(ctx, c.apiBase+"/companyinformation", accessToken, &parsed); err != nil {
		return nil, err
	}
	return &parsed.CompanyInformation, nil
}

// fetchAll eagerly walks a paginated list endpoint, concatenating the named
// collection of every page. Missing metadata means a single page; a missing
// collection means an empty one.
func fetchAll[T any](ctx context.Context, c *Client, accessToken, path, collectionKey string) ([]T, error) {
	all := []T{}
	page, totalPages := 1, 1

	for page <= totalPages {
		u := fmt.Sprintf("%s%s?limit=%d&page=%d", c.apiBase, path, pageSize, page)

		var raw map[string]json.RawMessage
		if err := c.getJSON(ctx, u, accessToken, &raw); err != nil {
			return nil, fmt.Errorf("failed to fetch page %d of %s: %w", page, path, err)
		}

		if chunk, ok := raw[collectionKey]; ok {
			var items []T
			if err := json.Unmarshal(chunk, &items); err != nil {
				return nil, fmt.Errorf("failed to parse %s on page %d: %w", collectionKey, page, err)
			}
			all = append(all, items...)
		}

		if meta, ok := raw["MetaInformation"]; ok {
			var parsed MetaInformation
			if err := json.Unmarshal(meta, &parsed); err == nil && parsed.TotalPages > 0 {
				totalPages = parsed.TotalPages
			}
		}
		page++
	}

	return all, nil
}

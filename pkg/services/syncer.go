package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solvik/fortnox-sync/db"
	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/models"
)

// ErrNoCompany means the user has no company record to attach vouchers to.
var ErrNoCompany = errors.New("no company configured for user")

// VoucherSyncer runs the full voucher ingestion for one user: ensure a valid
// token, pull fiscal years and voucher headers, expand every header to its
// detail through the shared rate limiter, and land the result idempotently.
type VoucherSyncer struct {
	store       db.Store
	client      fortnox.API
	tokens      *TokenService
	concurrency int
	now         func() time.Time
}

// NewVoucherSyncer creates a syncer. concurrency bounds the detail fetch
// workers; 1 keeps the fetches sequential, which is the safe default for the
// provider's burst protection.
func NewVoucherSyncer(store db.Store, client fortnox.API, concurrency int) *VoucherSyncer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &VoucherSyncer{
		store:       store,
		client:      client,
		tokens:      NewTokenService(store, client),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Tokens exposes the token service sharing this syncer's store and client.
func (s *VoucherSyncer) Tokens() *TokenService {
	return s.tokens
}

// Sync executes one run. Fatal failures (no company, token trouble, header
// or detail fetch errors) return an error; persistence trouble degrades the
// summary instead so partial progress is visible rather than silently lost.
func (s *VoucherSyncer) Sync(ctx context.Context, userID string) (*models.SyncSummary, error) {
	company, err := s.store.GetCompanyByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}
	if company == nil {
		return nil, ErrNoCompany
	}

	integration, err := s.tokens.EnsureValid(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.SyncSummary{
		CompanyID: company.ID,
		Status:    models.SyncCompleted,
	}

	// Fiscal years are context for the dashboard; their absence must not
	// block the voucher sync.
	if err := s.syncFiscalYears(ctx, company.ID, integration.AccessToken); err != nil {
		log.Warn().Err(err).Str("company", company.ID).
			Msg("Fiscal year sync failed, continuing")
		summary.Degrade("fiscal years", err)
	}

	headers, err := s.client.FetchVoucherHeaders(ctx, integration.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voucher headers: %w", err)
	}
	log.Info().Int("count", len(headers)).Str("company", company.ID).
		Msg("Fetched voucher headers")

	details, err := s.fetchDetails(ctx, integration.AccessToken, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voucher details: %w", err)
	}

	vouchers := make([]*models.Voucher, 0, len(details))
	rowsByVoucher := make(map[string][]*models.VoucherRow, len(details))
	totalRows := 0
	for _, detail := range details {
		voucher, voucherRows := buildVoucher(company.ID, detail)
		vouchers = append(vouchers, voucher)
		// Keyed even when empty, so a voucher whose lines all disappeared
		// upstream still gets its stored rows cleared.
		rowsByVoucher[voucher.VoucherID] = voucherRows
		totalRows += len(voucherRows)
	}

	// Vouchers land before their rows so lines never reference a voucher
	// the store has not seen. A failed voucher batch still lets the row
	// batch try; the summary reports the partial outcome.
	if err := s.store.UpsertVouchers(vouchers); err != nil {
		log.Error().Err(err).Msg("Voucher upsert failed")
		summary.Degrade("voucher upsert", err)
	} else {
		summary.Vouchers = len(vouchers)
	}

	if err := s.store.ReplaceVoucherRows(rowsByVoucher); err != nil {
		log.Error().Err(err).Msg("Voucher row upsert failed")
		summary.Degrade("voucher row upsert", err)
	} else {
		summary.Rows = totalRows
	}

	if err := s.store.MarkIntegrationSynced(integration.ID, s.now()); err != nil {
		log.Error().Err(err).Msg("Failed to mark integration synced")
		summary.Degrade("mark synced", err)
	}

	log.Info().Str("company", company.ID).
		Int("vouchers", summary.Vouchers).Int("rows", summary.Rows).
		Str("status", string(summary.Status)).Msg("Sync finished")
	return summary, nil
}

func (s *VoucherSyncer) syncFiscalYears(ctx context.Context, companyID, accessToken string) error {
	years, err := s.client.FetchFiscalYears(ctx, accessToken)
	if err != nil {
		return err
	}

	for _, year := range years {
		fy := buildFiscalYear(uuid.NewString(), companyID, year)
		if err := s.store.UpsertFiscalYear(fy); err != nil {
			return err
		}
	}
	return nil
}

// fetchDetails expands headers through a bounded worker pool. Every request
// still passes the shared limiter inside the client, so total admission
// honors the provider windows whatever the pool width is.
func (s *VoucherSyncer) fetchDetails(ctx context.Context, accessToken string, headers []fortnox.VoucherHeader) ([]*fortnox.VoucherDetail, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	details := make([]*fortnox.VoucherDetail, len(headers))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for w := 0; w < s.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				h := headers[idx]
				detail, err := s.client.FetchVoucherDetail(
					ctx, accessToken, h.VoucherSeries, h.VoucherNumber, h.Year)
				if err != nil {
					fail(fmt.Errorf("voucher %s-%d-%d: %w",
						h.VoucherSeries, h.Year, h.VoucherNumber, err))
					return
				}
				details[idx] = detail
			}
		}()
	}

feed:
	for idx := range headers {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

package models

import "fmt"

// SyncStatus is the overall outcome of a sync run.
type SyncStatus string

const (
	SyncCompleted SyncStatus = "completed"
	SyncPartial   SyncStatus = "partial"
	SyncFailed    SyncStatus = "failed"
)

// SyncSummary is what a sync run reports back to the caller.
type SyncSummary struct {
	CompanyID string     `json:"companyId"`
	Status    SyncStatus `json:"status"`
	Vouchers  int        `json:"vouchers"`
	Rows      int        `json:"rows"`
	// Problems lists the degraded steps of a partial run.
	Problems []string `json:"problems,omitempty"`
}

// Degrade records a non-fatal step failure and downgrades the run status.
func (s *SyncSummary) Degrade(step string, err error) {
	s.Problems = append(s.Problems, fmt.Sprintf("%s: %v", step, err))
	if s.Status != SyncFailed {
		s.Status = SyncPartial
	}
}

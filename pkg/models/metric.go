package models

import "github.com/shopspring/decimal"

// MetricKind discriminates which KPI a point belongs to. The dashboard used
// to model this as four mutually exclusive optional fields; a tagged value
// is much easier to validate.
type MetricKind string

const (
	MetricRevenue     MetricKind = "revenue"
	MetricCosts       MetricKind = "costs"
	MetricProfit      MetricKind = "profit"
	MetricGrossMargin MetricKind = "grossMargin"
)

// ParseMetricKind validates a kind coming from the outside.
func ParseMetricKind(s string) (MetricKind, bool) {
	switch MetricKind(s) {
	case MetricRevenue, MetricCosts, MetricProfit, MetricGrossMargin:
		return MetricKind(s), true
	}
	return "", false
}

// MetricPoint is one month of a KPI series.
type MetricPoint struct {
	Kind  MetricKind      `json:"kind"`
	Month string          `json:"month"` // yyyy-MM
	Value decimal.Decimal `json:"value"`
}

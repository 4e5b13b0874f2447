package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVoucherID(t *testing.T) {
	tests := []struct {
		series string
		year   int
		number int
		want   string
	}{
		{"A", 1, 42, "A-1-42"},
		{"B", 3, 1, "B-3-1"},
		{"LF", 2, 1007, "LF-2-1007"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, VoucherID(tt.series, tt.year, tt.number))
	}
}

func TestVoucherRowID(t *testing.T) {
	assert.Equal(t, "A-1-42-1", VoucherRowID("A-1-42", 1))
	assert.Equal(t, "A-1-42-3", VoucherRowID("A-1-42", 3))
}

func TestVoucherRowMoney(t *testing.T) {
	row := &VoucherRow{
		Debit:  decimal.RequireFromString("1250.50"),
		Credit: decimal.RequireFromString("0.05"),
	}

	assert.Equal(t, int64(125050), row.DebitMoney().Amount())
	assert.Equal(t, int64(5), row.CreditMoney().Amount())
	assert.Equal(t, "SEK", row.DebitMoney().Currency().Code)
}

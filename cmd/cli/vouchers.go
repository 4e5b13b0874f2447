package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/solvik/fortnox-sync/pkg/models"
	"github.com/solvik/fortnox-sync/pkg/utils"
)

func newVouchersCmd() *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "vouchers",
		Short: "List synced vouchers for a company",
		Run: func(cmd *cobra.Command, args []string) {
			store := openStore()
			defer store.Close()

			vouchers, err := store.GetVouchers(companyID)
			if err != nil {
				log.Error().Err(err).Msg("Error fetching vouchers")
				return
			}

			if len(vouchers) == 0 {
				fmt.Println("No vouchers found")
				return
			}

			fmt.Printf("Found %d vouchers:\n\n", len(vouchers))
			fmt.Printf("%-15s %-12s %-30s %-6s %15s\n",
				"Voucher", "Date", utils.Capitalize("description"), "Lines", "Total")
			fmt.Println(strings.Repeat("-", 85))

			for _, v := range vouchers {
				rows, err := store.GetVoucherRows(v.VoucherID)
				if err != nil {
					log.Error().Err(err).Str("voucher", v.VoucherID).Msg("Error fetching rows")
					continue
				}

				total := decimal.Zero
				for _, row := range rows {
					total = total.Add(row.Debit)
				}
				totalRow := models.VoucherRow{Debit: total}

				description := v.Description
				if len(description) > 30 {
					description = description[:30]
				}
				fmt.Printf("%-15s %-12s %-30s %-6d %15s\n",
					v.VoucherID,
					v.TransactionDate,
					description,
					len(rows),
					totalRow.DebitMoney().Display())
			}
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to list vouchers for")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

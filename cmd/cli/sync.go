package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solvik/fortnox-sync/pkg/models"
)

func newSyncCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a voucher sync for one user",
		Long:  `Run a full voucher sync for one user: refresh the access token if needed, fetch fiscal years, voucher headers and details, and upsert everything into the local database.`,
		Run: func(cmd *cobra.Command, args []string) {
			store := openStore()
			defer store.Close()

			client := newFortnoxClient()
			syncer := newSyncer(store, client)

			summary, err := syncer.Sync(cmd.Context(), userID)
			if err != nil {
				log.Error().Err(err).Str("user", userID).Msg("Sync failed")
				return
			}

			fmt.Printf("Sync %s: %d vouchers, %d rows\n",
				summary.Status, summary.Vouchers, summary.Rows)
			if summary.Status == models.SyncPartial {
				for _, problem := range summary.Problems {
					fmt.Printf("  degraded: %s\n", problem)
				}
			}
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User to sync")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solvik/fortnox-sync/pkg/config"
	"github.com/solvik/fortnox-sync/pkg/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  `Run the HTTP server exposing the OAuth connect flow, the sync trigger and the KPI read endpoints.`,
		Run: func(cmd *cobra.Command, args []string) {
			store := openStore()
			defer store.Close()

			client := newFortnoxClient()
			srv := server.New(store, client, newSyncer(store, client))

			if err := srv.Run(config.GetListenAddr()); err != nil {
				log.Error().Err(err).Msg("HTTP server failed")
			}
		},
	}
}

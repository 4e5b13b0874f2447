package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solvik/fortnox-sync/db"
	"github.com/solvik/fortnox-sync/pkg/config"
	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/ratelimit"
	"github.com/solvik/fortnox-sync/pkg/services"
)

var (
	dbPath  string
	debug   bool
	rootCmd *cobra.Command
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error().Err(err).Msg("Error getting home directory")
		os.Exit(1)
	}

	defaultDBPath := filepath.Join(homeDir, ".fortnox-sync", "fortnox.db")

	// Secrets may live in a .env next to the binary.
	_ = godotenv.Load()

	if err := config.InitGlobalConfig("config.yaml"); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("Failed to load configuration")
			log.Warn().Msg("Environment variables will be used instead")
		}
	}

	rootCmd = &cobra.Command{
		Use:   "fortnox-sync",
		Short: "Sync Fortnox accounting data into a local store",
		Long: `fortnox-sync connects to the Fortnox API, pulls vouchers and fiscal
years for connected companies and lands them idempotently in a SQLite
database for the KPI dashboard to read.`,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, "Path to the SQLite database")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Dump Fortnox requests and responses")

	rootCmd.AddCommand(newServeCmd(), newSyncCmd(), newVouchersCmd(), newConfigCmd())

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// openStore opens and initializes the database.
func openStore() db.Store {
	database, err := db.New(dbPath)
	if err != nil {
		log.Error().Err(err).Msg("Error connecting to database")
		os.Exit(1)
	}
	if err := database.Initialize(); err != nil {
		log.Error().Err(err).Msg("Error initializing database")
		os.Exit(1)
	}
	return database
}

// newFortnoxClient builds the shared client, including the process-wide
// rate limiter every sync passes through.
func newFortnoxClient() *fortnox.Client {
	clientID, clientSecret, err := config.GetFortnoxCredentials()
	if err != nil {
		log.Error().Err(err).Msg("Error getting Fortnox credentials from config")
		log.Error().Msg("Set fortnox.clientId/clientSecret in config.yaml or FORTNOX_CLIENT_ID/FORTNOX_CLIENT_SECRET")
		os.Exit(1)
	}
	redirectURI, err := config.GetRedirectURI()
	if err != nil {
		log.Warn().Err(err).Msg("No redirect URI configured, OAuth connect will not work")
	}

	burst, sustained, minSpacing := config.GetRateLimit()
	limiter := ratelimit.New(ratelimit.Options{
		Burst:      burst,
		Sustained:  sustained,
		MinSpacing: minSpacing,
	})

	return fortnox.NewClient(fortnox.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Scopes:       config.GetScopes(),
		Limiter:      limiter,
		Debug:        debug,
	})
}

func newSyncer(store db.Store, client *fortnox.Client) *services.VoucherSyncer {
	return services.NewVoucherSyncer(store, client, config.GetSyncConcurrency())
}

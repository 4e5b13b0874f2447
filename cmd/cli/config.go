package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solvik/fortnox-sync/pkg/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		Long:  `Show the current configuration loaded from config.yaml and the environment.`,
		Run: func(cmd *cobra.Command, args []string) {
			showConfig()
		},
	}
}

// showConfig displays the current configuration
func showConfig() {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Error().Err(err).Msg("Error loading configuration")
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")

	if cfg.Fortnox.ClientID != "" {
		fmt.Printf("Fortnox Client ID: %s\n", cfg.Fortnox.ClientID)
	} else {
		fmt.Println("Fortnox Client ID: Not set")
	}

	// Only show enough of the secret to confirm which one is loaded.
	secret := cfg.Fortnox.ClientSecret
	if secret != "" {
		masked := ""
		if len(secret) > 8 {
			masked = secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
		} else {
			masked = strings.Repeat("*", len(secret))
		}
		fmt.Printf("Fortnox Client Secret: %s\n", masked)
	} else {
		fmt.Println("Fortnox Client Secret: Not set")
		fmt.Println("\nPlease set your credentials in config.yaml or the environment")
		fmt.Println("before using the sync or serve commands.")
	}

	if cfg.Fortnox.RedirectURI != "" {
		fmt.Printf("Redirect URI: %s\n", cfg.Fortnox.RedirectURI)
	}
	fmt.Printf("Scopes: %s\n", strings.Join(config.GetScopes(), " "))
	fmt.Printf("Listen Address: %s\n", config.GetListenAddr())
	fmt.Printf("Sync Concurrency: %d\n", config.GetSyncConcurrency())
}

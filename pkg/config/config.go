package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
)

// FortnoxOptions holds the OAuth app registration and API tuning.
type FortnoxOptions struct {
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret"`
	RedirectURI  string   `yaml:"redirectUri"`
	Scopes       []string `yaml:"scopes"`
	APIBaseURL   string   `yaml:"apiBaseUrl"`
	AuthBaseURL  string   `yaml:"authBaseUrl"`
}

// RateLimitOptions holds the client-side shaping of Fortnox traffic. The
// defaults track the provider quota with headroom.
type RateLimitOptions struct {
	Burst        int `yaml:"burst"`
	Sustained    int `yaml:"sustained"`
	MinSpacingMs int `yaml:"minSpacingMs"`
}

// Config holds the application configuration
type Config struct {
	Fortnox         FortnoxOptions   `yaml:"fortnox"`
	RateLimit       RateLimitOptions `yaml:"rateLimit"`
	SyncConcurrency int              `yaml:"syncConcurrency"`
	ListenAddr      string           `yaml:"listenAddr"`
}

var (
	// Global configuration instance
	globalConfig *Config
	// Mutex to ensure thread-safe access to the global configuration
	configMutex sync.RWMutex
	// Flag to track if the configuration has been loaded
	configLoaded bool
)

// LoadConfig loads the configuration from the specified YAML file and
// applies environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	applyEnvOverrides(&config)
	return &config, nil
}

// InitGlobalConfig initializes the global configuration from the specified file
func InitGlobalConfig(configPath string) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = config
	configLoaded = true
	return nil
}

// GetConfig returns the global configuration instance. When no config file
// was loaded, an env-only configuration is used so the tool also runs in
// containers with nothing but environment variables.
func GetConfig() (*Config, error) {
	configMutex.RLock()
	if configLoaded {
		defer configMutex.RUnlock()
		return globalConfig, nil
	}
	configMutex.RUnlock()

	if err := InitGlobalConfig("config.yaml"); err != nil {
		// The read error comes back wrapped, so unwrap when checking for
		// a missing file.
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		config := &Config{}
		applyEnvOverrides(config)

		configMutex.Lock()
		globalConfig = config
		configLoaded = true
		configMutex.Unlock()
	}

	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("FORTNOX_CLIENT_ID"); v != "" {
		config.Fortnox.ClientID = v
	}
	if v := os.Getenv("FORTNOX_CLIENT_SECRET"); v != "" {
		config.Fortnox.ClientSecret = v
	}
	if v := os.Getenv("FORTNOX_REDIRECT_URI"); v != "" {
		config.Fortnox.RedirectURI = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		config.ListenAddr = v
	}
}

// GetFortnoxCredentials returns the OAuth app credentials from the
// configuration.
func GetFortnoxCredentials() (string, string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", "", err
	}

	if config.Fortnox.ClientID == "" || config.Fortnox.ClientSecret == "" {
		return "", "", fmt.Errorf("error: Fortnox client credentials not set in configuration")
	}

	return config.Fortnox.ClientID, config.Fortnox.ClientSecret, nil
}

// GetRedirectURI returns the OAuth callback URL from the configuration.
func GetRedirectURI() (string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", err
	}

	if config.Fortnox.RedirectURI == "" {
		return "", fmt.Errorf("error: Fortnox redirect URI not set in configuration")
	}

	return config.Fortnox.RedirectURI, nil
}

// GetScopes returns the OAuth scopes, defaulting to bookkeeping access.
func GetScopes() []string {
	config, err := GetConfig()
	if err != nil || len(config.Fortnox.Scopes) == 0 {
		return []string{"bookkeeping", "companyinformation"}
	}
	return config.Fortnox.Scopes
}

// GetListenAddr returns the HTTP listen address.
func GetListenAddr() string {
	config, err := GetConfig()
	if err != nil || config.ListenAddr == "" {
		return ":8080"
	}
	return config.ListenAddr
}

// GetSyncConcurrency returns the detail-fetch worker count.
func GetSyncConcurrency() int {
	config, err := GetConfig()
	if err != nil || config.SyncConcurrency < 1 {
		return 1
	}
	return config.SyncConcurrency
}

// GetRateLimit returns the configured traffic shaping values. Zeroes mean
// the limiter defaults apply.
func GetRateLimit() (burst, sustained int, minSpacing time.Duration) {
	config, err := GetConfig()
	if err != nil {
		return 0, 0, 0
	}
	return config.RateLimit.Burst, config.RateLimit.Sustained,
		time.Duration(config.RateLimit.MinSpacingMs) * time.Millisecond
}

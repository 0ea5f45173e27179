package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// RPCURL is the ledger RPC entry point. Required.
	RPCURL string

	// JupiterAPIURL is the aggregator API base URL.
	JupiterAPIURL string

	// WalletPrivateKey is the signer's base58-encoded private key. Either
	// this or WalletKeypairFile is required for signing commands.
	WalletPrivateKey string

	// WalletKeypairFile is a Solana CLI JSON keypair file path.
	WalletKeypairFile string

	Network       string
	Commitment    string
	SlippageBps   uint64
	SkipPreflight bool

	MaxSwapAttempts     int
	BroadcastMaxRetries int

	// Market sampler settings.
	SampleInterval  time.Duration
	SampleRetention time.Duration

	MetricsAddr string
	LogLevel    string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".jupiter-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("jupiter_api_url", DefaultJupiterAPIURL)
	viper.SetDefault("rpc_url", DefaultRPCURL)
	viper.SetDefault("network", "mainnet")
	viper.SetDefault("commitment", DefaultCommitment)
	viper.SetDefault("slippage_bps", DefaultSlippageBps)
	viper.SetDefault("skip_preflight", SkipPreflightDefault)
	viper.SetDefault("max_swap_attempts", MaxSwapAttempts)
	viper.SetDefault("broadcast_max_retries", BroadcastMaxRetries)
	viper.SetDefault("sample_interval", DefaultSampleInterval)
	viper.SetDefault("sample_retention", DefaultSampleRetention)
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("log_level", "info")

	// Read from environment variables
	viper.SetEnvPrefix("JUPITER_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCURL:              viper.GetString("rpc_url"),
		JupiterAPIURL:       viper.GetString("jupiter_api_url"),
		WalletPrivateKey:    viper.GetString("wallet_private_key"),
		WalletKeypairFile:   viper.GetString("wallet_keypair_file"),
		Network:             viper.GetString("network"),
		Commitment:          viper.GetString("commitment"),
		SlippageBps:         viper.GetUint64("slippage_bps"),
		SkipPreflight:       viper.GetBool("skip_preflight"),
		MaxSwapAttempts:     viper.GetInt("max_swap_attempts"),
		BroadcastMaxRetries: viper.GetInt("broadcast_max_retries"),
		SampleInterval:      viper.GetDuration("sample_interval"),
		SampleRetention:     viper.GetDuration("sample_retention"),
		MetricsAddr:         viper.GetString("metrics_addr"),
		LogLevel:            viper.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks that required values are present. Missing values are
// reported together so a broken environment fails startup with one message.
func (c *Config) Validate() error {
	var missing []string
	if c.RPCURL == "" {
		missing = append(missing, "JUPITER_SWAP_RPC_URL")
	}
	if c.JupiterAPIURL == "" {
		missing = append(missing, "JUPITER_SWAP_JUPITER_API_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.MaxSwapAttempts < 1 {
		return fmt.Errorf("max_swap_attempts must be at least 1, got %d", c.MaxSwapAttempts)
	}
	if c.BroadcastMaxRetries < 0 {
		return fmt.Errorf("broadcast_max_retries must not be negative, got %d", c.BroadcastMaxRetries)
	}
	return nil
}

// RequireWallet ensures a signing key is configured.
func (c *Config) RequireWallet() error {
	if c.WalletPrivateKey == "" && c.WalletKeypairFile == "" {
		return fmt.Errorf("no wallet configured. Set JUPITER_SWAP_WALLET_PRIVATE_KEY or JUPITER_SWAP_WALLET_KEYPAIR_FILE")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

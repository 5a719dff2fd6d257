package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// MaxTransferSOL is the largest SOL amount whose lamport value still fits
// in uint64. Amounts above it would silently wrap when converted.
const MaxTransferSOL = float64(math.MaxUint64 / solana.LAMPORTS_PER_SOL)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Solana configuration
	SolanaRPCURL string

	// NATS configuration. Empty disables event publishing.
	NATSURL string

	// Action provider configuration
	Transfer TransferConfig
	Memo     MemoConfig
}

// TransferConfig holds the fixed defaults for the SOL transfer action.
type TransferConfig struct {
	// DefaultTo is the destination used when the request supplies no "to"
	// query parameter.
	DefaultTo string

	// DefaultAmount is the SOL amount used when the request supplies no
	// "amount" query parameter.
	DefaultAmount float64
}

// MemoConfig holds the fixed parameters for the memo action and its
// on-chain history scan.
type MemoConfig struct {
	// ScanAddress is the address whose recent history is searched for the
	// marker string.
	ScanAddress string

	// Marker is the payload posted by default, and the string searched for
	// in recent transaction logs.
	Marker string

	// AltMarker is the payload posted when Marker was found on-chain within
	// the scan window.
	AltMarker string

	// PriorityFeeMicroLamports is the compute unit price attached to every
	// memo transaction.
	PriorityFeeMicroLamports uint64

	// ScanWindow bounds how far back the history scan looks.
	ScanWindow time.Duration

	// ScanPageSize is the signature page size and the transaction batch size
	// used by the scan.
	ScanPageSize int
}

// Load reads configuration from environment variables and validates all
// fields. Returns an error if any configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Solana configuration. The public devnet endpoint is the fallback so
	// the server runs without any environment at all.
	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", rpc.DevNet_RPC)

	// NATS configuration (optional)
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Transfer action configuration
	cfg.Transfer.DefaultTo = getEnvOrDefault("TRANSFER_DEFAULT_TO", "So11111111111111111111111111111111111111112")
	defaultAmount, err := parseFloat("TRANSFER_DEFAULT_AMOUNT", 1)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Transfer.DefaultAmount = defaultAmount
	}

	// Memo action configuration. The scan target defaults to the memo
	// program itself since that is where memo-carrying transactions land.
	cfg.Memo.ScanAddress = getEnvOrDefault("MEMO_SCAN_ADDRESS", "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	cfg.Memo.Marker = getEnvOrDefault("MEMO_MARKER", "gm")
	cfg.Memo.AltMarker = getEnvOrDefault("MEMO_ALT_MARKER", "gn")

	priorityFee, err := parseUint("MEMO_PRIORITY_FEE_MICROLAMPORTS", 1000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Memo.PriorityFeeMicroLamports = priorityFee
	}

	scanWindow, err := parseDuration("MEMO_SCAN_WINDOW", "24h")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Memo.ScanWindow = scanWindow
	}

	scanPageSize, err := parseInt("MEMO_SCAN_PAGE_SIZE", 100)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Memo.ScanPageSize = scanPageSize
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if _, err := solana.PublicKeyFromBase58(c.Transfer.DefaultTo); err != nil {
		errs = append(errs, fmt.Errorf("Transfer.DefaultTo is not a valid address: %w", err))
	}

	if c.Transfer.DefaultAmount <= 0 {
		errs = append(errs, fmt.Errorf("Transfer.DefaultAmount must be positive"))
	} else if c.Transfer.DefaultAmount > MaxTransferSOL {
		errs = append(errs, fmt.Errorf("Transfer.DefaultAmount exceeds the maximum transferable SOL"))
	}

	if _, err := solana.PublicKeyFromBase58(c.Memo.ScanAddress); err != nil {
		errs = append(errs, fmt.Errorf("Memo.ScanAddress is not a valid address: %w", err))
	}

	if c.Memo.Marker == "" {
		errs = append(errs, fmt.Errorf("Memo.Marker is required"))
	}

	if c.Memo.AltMarker == "" {
		errs = append(errs, fmt.Errorf("Memo.AltMarker is required"))
	}

	if c.Memo.Marker != "" && c.Memo.Marker == c.Memo.AltMarker {
		errs = append(errs, fmt.Errorf("Memo.Marker and Memo.AltMarker must be different"))
	}

	if c.Memo.ScanWindow <= 0 {
		errs = append(errs, fmt.Errorf("Memo.ScanWindow must be positive"))
	}

	if c.Memo.ScanPageSize < 1 || c.Memo.ScanPageSize > 1000 {
		errs = append(errs, fmt.Errorf("Memo.ScanPageSize must be between 1 and 1000"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseUint parses an unsigned integer from an environment variable or uses a default.
func parseUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid unsigned integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return result, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Settings holds all configuration for the payout engine
type Settings struct {
	// Epoch Geometry
	EpochStartBlock uint64
	EpochLength     uint64

	// Periodic Tasks
	FillInterval time.Duration

	// Persistence
	PayoutsDir string

	// Ethereum RPC Configuration
	RPCURL           string
	ChainID          int64
	StakingContract  string // Emits PropositionStaked events
	PayoutContract   string // Holds payout roots per epoch
	IssuerPrivateKey string // Hex-encoded key of the payout issuer account

	// Event Monitoring
	EventStartBlock     uint64
	EventPollInterval   time.Duration
	EventBlockBatchSize uint64

	// Redis Configuration (optional mirror)
	RedisHost     string
	RedisPort     string
	RedisDB       int
	RedisPassword string

	// Monitoring & Debugging
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
	DebugMode      bool
}

var (
	// SettingsObj is the global settings instance
	SettingsObj *Settings
)

// LoadConfig loads configuration from an optional config file (CONFIG_FILE)
// overlaid with environment variables; environment always wins.
func LoadConfig() error {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Infof("Loaded config file %s", path)
	}

	SettingsObj = &Settings{
		// Epoch Geometry
		EpochStartBlock: uint64(getEnvAsInt("EPOCH_START_BLOCK", 0)),
		EpochLength:     uint64(getEnvAsInt("EPOCH_LENGTH", 100)),

		// Periodic Tasks
		FillInterval: time.Duration(getEnvAsInt("FILL_INTERVAL_SECONDS", 5)) * time.Second,

		// Persistence
		PayoutsDir: getEnv("PAYOUTS_DIR", "./payout_epochs"),

		// Ethereum RPC Configuration
		RPCURL:           getEnv("RPC_URL", ""),
		ChainID:          int64(getEnvAsInt("CHAIN_ID", 1)),
		StakingContract:  getEnv("STAKING_CONTRACT", ""),
		PayoutContract:   getEnv("PAYOUT_CONTRACT", ""),
		IssuerPrivateKey: getEnv("ISSUER_PRIVATE_KEY", ""),

		// Event Monitoring
		EventStartBlock:     uint64(getEnvAsInt("EVENT_START_BLOCK", 0)),
		EventPollInterval:   time.Duration(getEnvAsInt("EVENT_POLL_INTERVAL", 5)) * time.Second,
		EventBlockBatchSize: uint64(getEnvAsInt("EVENT_BLOCK_BATCH_SIZE", 1000)),

		// Redis Configuration
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		// Monitoring & Debugging
		MetricsEnabled: getBoolEnv("METRICS_ENABLED", false),
		MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DebugMode:      getBoolEnv("DEBUG_MODE", false),
	}

	// Configure logging
	configureLogging()

	// Validate configuration
	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Log configuration summary
	logConfigSummary()

	return nil
}

// configureLogging sets up the logger based on configuration
func configureLogging() {
	switch strings.ToLower(SettingsObj.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	// Override with debug mode
	if SettingsObj.DebugMode {
		log.SetLevel(log.DebugLevel)
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

// validateConfig validates the loaded configuration
func validateConfig() error {
	if SettingsObj.EpochLength == 0 {
		return fmt.Errorf("EPOCH_LENGTH must be greater than zero")
	}

	if SettingsObj.RPCURL != "" {
		if SettingsObj.StakingContract == "" {
			return fmt.Errorf("STAKING_CONTRACT required when RPC_URL is set")
		}
		if !common.IsHexAddress(SettingsObj.StakingContract) {
			return fmt.Errorf("invalid staking contract address: %s", SettingsObj.StakingContract)
		}
		if SettingsObj.PayoutContract != "" && !common.IsHexAddress(SettingsObj.PayoutContract) {
			return fmt.Errorf("invalid payout contract address: %s", SettingsObj.PayoutContract)
		}
		if SettingsObj.PayoutContract != "" && SettingsObj.IssuerPrivateKey == "" {
			return fmt.Errorf("ISSUER_PRIVATE_KEY required when PAYOUT_CONTRACT is set")
		}
	}

	return nil
}

// logConfigSummary logs a summary of the configuration
func logConfigSummary() {
	log.Info("=== Configuration Loaded ===")
	log.Infof("Epoch geometry: start block %d, length %d", SettingsObj.EpochStartBlock, SettingsObj.EpochLength)
	log.Infof("Fill interval: %v", SettingsObj.FillInterval)
	log.Infof("Payouts directory: %s", SettingsObj.PayoutsDir)

	if SettingsObj.RPCURL != "" {
		log.Infof("RPC: %s (chain %d)", SettingsObj.RPCURL, SettingsObj.ChainID)
		log.Infof("Staking contract: %s", SettingsObj.StakingContract)
	}
	if SettingsObj.PayoutContract != "" {
		log.Infof("Payout contract: %s", SettingsObj.PayoutContract)
	}
	if SettingsObj.RedisHost != "" {
		log.Infof("Redis: %s:%s (DB %d)", SettingsObj.RedisHost, SettingsObj.RedisPort, SettingsObj.RedisDB)
	}

	log.Info("============================")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := viper.GetString(strings.ToLower(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	if viper.IsSet(strings.ToLower(key)) {
		return viper.GetInt(strings.ToLower(key))
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(value)
		return value == "true" || value == "1" || value == "yes"
	}
	if viper.IsSet(strings.ToLower(key)) {
		return viper.GetBool(strings.ToLower(key))
	}
	return defaultValue
}

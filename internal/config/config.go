// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the local database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Sync behavior
	SyncMinAge     time.Duration // Minimum record age before server-side change checks apply
	SyncInterval   time.Duration // Periodic reconciliation interval while online
	SimulateRemote bool          // Use the simulated remote oracle instead of a real backend
	SimulateChance float64       // Probability (0..1) that the simulated oracle reports a change

	Backup *BackupConfig
}

// BackupConfig holds cloud snapshot backup configuration.
// Backups are disabled when the bucket or credentials are missing.
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // S3-compatible endpoint (e.g. Cloudflare R2)
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("LEDGERD_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("LEDGERD_PORT", 8001),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		SyncMinAge:     time.Duration(getEnvAsInt("SYNC_MIN_AGE_SECONDS", 30)) * time.Second,
		SyncInterval:   time.Duration(getEnvAsInt("SYNC_INTERVAL_MINUTES", 5)) * time.Minute,
		SimulateRemote: getEnvAsBool("SYNC_SIMULATE_REMOTE", true),
		SimulateChance: getEnvAsFloat("SYNC_SIMULATE_CHANCE", 0.3),
		Backup:         loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.SyncMinAge < 0 {
		return fmt.Errorf("SYNC_MIN_AGE_SECONDS must not be negative")
	}
	if c.SimulateChance < 0 || c.SimulateChance > 1 {
		return fmt.Errorf("SYNC_SIMULATE_CHANCE must be between 0 and 1")
	}
	return nil
}

// loadBackupConfig loads cloud backup configuration.
// The backup job is only enabled when a bucket and both credentials are set.
func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
	}
	cfg.Enabled = cfg.Bucket != "" && cfg.AccessKeyID != "" && cfg.SecretAccessKey != ""
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

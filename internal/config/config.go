package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Database paths
	SQLitePath string `mapstructure:"sqlite-path"`
	FSMDBPath  string `mapstructure:"fsm-db-path"`

	// Board layout
	BoardFile string `mapstructure:"board-file"`

	// Download transport: https, http or s3
	Transport string `mapstructure:"transport"`

	// S3 configuration
	S3Region    string `mapstructure:"s3-region"`
	S3Anonymous bool   `mapstructure:"s3-anonymous"`

	// Update target configuration
	ImageType    string `mapstructure:"image-type"`
	TargetSlot   int    `mapstructure:"target-slot"`
	BufferSize   int    `mapstructure:"buffer-size"`
	FragmentSize int    `mapstructure:"fragment-size"`

	// Reset handling
	ResetCommand string `mapstructure:"reset-command"`
	RecoveryMode bool   `mapstructure:"recovery-mode"`
}

// Transport values accepted by Validate.
const (
	TransportHTTPS = "https"
	TransportHTTP  = "http"
	TransportS3    = "s3"
)

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("sqlite-path", ".artifacts/attempts.db")
	viper.SetDefault("fsm-db-path", ".artifacts/fsm.db")
	viper.SetDefault("board-file", "board.yaml")
	viper.SetDefault("transport", TransportHTTPS)
	viper.SetDefault("s3-region", "us-east-1")
	viper.SetDefault("s3-anonymous", false)
	viper.SetDefault("image-type", "mcuboot")
	viper.SetDefault("target-slot", 1)
	viper.SetDefault("buffer-size", 2048)
	viper.SetDefault("fragment-size", 4096)
	viper.SetDefault("reset-command", "reboot")
	viper.SetDefault("recovery-mode", false)

	// Environment variables (will be FOTACTL_BOARD_FILE, etc.)
	viper.SetEnvPrefix("FOTACTL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.fotactl")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	// Unmarshal into config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.SQLitePath == "" {
		return fmt.Errorf("sqlite-path cannot be empty")
	}
	if c.FSMDBPath == "" {
		return fmt.Errorf("fsm-db-path cannot be empty")
	}
	if c.BoardFile == "" {
		return fmt.Errorf("board-file cannot be empty")
	}
	switch c.Transport {
	case TransportHTTPS, TransportHTTP, TransportS3:
	default:
		return fmt.Errorf("transport must be one of https, http, s3")
	}
	if c.Transport == TransportS3 && c.S3Region == "" {
		return fmt.Errorf("s3-region cannot be empty with the s3 transport")
	}
	if c.ImageType == "" {
		return fmt.Errorf("image-type cannot be empty")
	}
	if c.TargetSlot < 0 {
		return fmt.Errorf("target-slot must be non-negative")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer-size must be positive")
	}
	if c.FragmentSize <= 0 {
		return fmt.Errorf("fragment-size must be positive")
	}
	if c.ResetCommand == "" {
		return fmt.Errorf("reset-command cannot be empty")
	}
	return nil
}

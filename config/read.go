package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/evcare-vn/evcare_backend/pkg/constants"
)

var (
	ErrInvalidDepositRate = errors.New("booking.deposit_rate must be between 0 and 1")
	ErrInvalidGranularity = errors.New("booking.slot_granularity_minutes must not be negative")
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	viper.SetConfigName(constants.ConfigName)
	viper.SetConfigType(constants.ConfigFormat)
	viper.AddConfigPath(configPath)

	// Allow env vars to override config values.
	// e.g. EVCARE_MONGO_URI overrides mongo.uri
	viper.SetEnvPrefix("EVCARE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read the config file (optional in Docker environments)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only fail if it's not a "file not found" error
			if os.Getenv("EVCARE_MONGO_URI") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

func setDefaults() {
	viper.SetDefault("booking.deposit_rate", 0.2)
	viper.SetDefault("booking.inspection_fee", 200_000)
	viper.SetDefault("booking.default_duration_minutes", 60)
	viper.SetDefault("booking.slot_granularity_minutes", 30)
	viper.SetDefault("booking.inventory_hold_hours", 48)
	viper.SetDefault("booking.reminder_lead_hours", 24)
	viper.SetDefault("payos.base_url", "https://api-merchant.payos.vn")
	viper.SetDefault("payos.link_expiry_minutes", 15)
	viper.SetDefault("mongo.connect_timeout_seconds", 10)
	viper.SetDefault("mongo.database", "evcare")
}

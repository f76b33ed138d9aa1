package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the expected version of the config file.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Discord    Discord    `koanf:"discord"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Cache      Cache      `koanf:"cache"`
	Limits     Limits     `koanf:"limits"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Bot token.
	Token string `koanf:"token"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DBName       string `koanf:"db_name"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	// Connection lifetime limits in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Cache contains the per-kind entity cache capacities. Each cache is
// bounded independently; eviction is least-frequently-used.
type Cache struct {
	UserCacheSize        int `koanf:"user_cache_size"`
	UserNullCacheSize    int `koanf:"user_null_cache_size"`
	MemberCacheSize      int `koanf:"member_cache_size"`
	WebhookCacheSize     int `koanf:"webhook_cache_size"`
	MessageCacheSize     int `koanf:"message_cache_size"`
	MessageNullCacheSize int `koanf:"message_null_cache_size"`
	ChannelCacheSize     int `koanf:"channel_cache_size"`
	ChannelNullCacheSize int `koanf:"channel_null_cache_size"`
	VoteEmojiCacheSize   int `koanf:"vote_emoji_cache_size"`
}

// Limits contains the bounds enforced on starboard settings and
// guild-level resource counts.
type Limits struct {
	// Numeric ranges for the vote thresholds.
	MinRequired       int `koanf:"min_required"`
	MaxRequired       int `koanf:"max_required"`
	MinRequiredRemove int `koanf:"min_required_remove"`
	MaxRequiredRemove int `koanf:"max_required_remove"`
	// Cooldown bounds; the minimum for both is always 1.
	MaxCooldownPeriod int `koanf:"max_cooldown_period"`
	MaxCooldownCount  int `koanf:"max_cooldown_count"`
	// String-length ceilings for the managed webhook identity.
	MaxWebhookNameLen   int `koanf:"max_webhook_name_len"`
	MaxWebhookAvatarLen int `koanf:"max_webhook_avatar_len"`
	// Resource counts.
	MaxStarboards       int `koanf:"max_starboards"`
	MaxOverrideChannels int `koanf:"max_override_channels"`
}

// LoadConfig loads the configuration from the specified file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".starboard",
		homeDir + "/.starboard/config",
		"/etc/starboard/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := fmt.Sprintf("%s/starboard.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: starboard.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Version == 0 {
		return nil, "", fmt.Errorf("%w: starboard.toml", ErrConfigVersionMissing)
	}

	if config.Version != CurrentVersion {
		return nil, "", fmt.Errorf("%w: starboard.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, config.Version, CurrentVersion)
	}

	return &config, usedConfigPath, nil
}

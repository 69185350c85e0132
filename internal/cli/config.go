package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/alf/pkg/persistence/middleware"
	"github.com/aretw0/alf/pkg/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved CLI configuration.
type Config struct {
	LogLevel    string `mapstructure:"log-level"`
	Mode        string `mapstructure:"mode"`
	Batch       bool   `mapstructure:"batch"`
	MaxRounds   int    `mapstructure:"max-rounds"`
	Store       string `mapstructure:"store"`
	StoreDir    string `mapstructure:"store-dir"`
	RedisAddr   string `mapstructure:"redis-addr"`
	RedisPrefix string `mapstructure:"redis-prefix"`
	Addr        string `mapstructure:"addr"`
	// EncryptionKey enables snapshot encryption (32 bytes, hex or base64).
	EncryptionKey string `mapstructure:"encryption-key"`
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		LogLevel:    "warn",
		Mode:        table.ModeEquality,
		Store:       StoreFile,
		StoreDir:    ".alf/sessions",
		RedisAddr:   "localhost:6379",
		RedisPrefix: "alf:session:",
		Addr:        ":8080",
	}
}

// InitViper creates a viper instance holding the defaults, the optional config
// file and the ALF_ environment.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindFlags)
//  2. Environment variables (ALF_MODE, ALF_REDIS_ADDR, etc.)
//  3. Config file values
//  4. Defaults
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("batch", d.Batch)
	v.SetDefault("max-rounds", d.MaxRounds)
	v.SetDefault("store", d.Store)
	v.SetDefault("store-dir", d.StoreDir)
	v.SetDefault("redis-addr", d.RedisAddr)
	v.SetDefault("redis-prefix", d.RedisPrefix)
	v.SetDefault("addr", d.Addr)
	v.SetDefault("encryption-key", d.EncryptionKey)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("alf")
		v.AddConfigPath(".")
		v.AddConfigPath(".alf")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		if configFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ALF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

// BindFlags binds every flag of cmd that names a config key.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for _, key := range v.AllKeys() {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", key, err)
			}
		}
	}
	return nil
}

// Load resolves the configuration held by v and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := table.PolicyByName(cfg.Mode); err != nil {
		return cfg, err
	}
	switch cfg.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return cfg, fmt.Errorf("unknown store %q (want memory, file or redis)", cfg.Store)
	}
	if cfg.EncryptionKey != "" {
		if _, err := middleware.ParseKey(cfg.EncryptionKey); err != nil {
			return cfg, err
		}
	}
	if cfg.MaxRounds < 0 {
		return cfg, fmt.Errorf("max-rounds must not be negative, got %d", cfg.MaxRounds)
	}
	return cfg, nil
}

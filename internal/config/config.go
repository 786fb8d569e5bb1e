package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/michaelbrown/polyrun/internal/language"
	"github.com/michaelbrown/polyrun/internal/remote"
)

type RemoteConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	VersionIndex string        `mapstructure:"version_index"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// ProxyPath is the same-origin path forwarded to ProxyTarget.
	ProxyPath   string `mapstructure:"proxy_path"`
	ProxyTarget string `mapstructure:"proxy_target"`
}

type LanguagesConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Remote    RemoteConfig    `mapstructure:"remote"`
	Server    ServerConfig    `mapstructure:"server"`
	Languages LanguagesConfig `mapstructure:"languages"`
	Log       LogConfig       `mapstructure:"log"`
}

// Load reads polyrun.yaml if present, a .env file if present, then
// POLYRUN_* environment variables. Only a malformed config file is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("polyrun")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.polyrun")

	return load(v)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("remote.endpoint", remote.DefaultEndpoint)
	v.SetDefault("remote.timeout", 30*time.Second)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.proxy_path", "/api/jdoodle")
	v.SetDefault("server.proxy_target", remote.DefaultEndpoint)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("polyrun")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Legacy JDOODLE_* credential names.
	v.BindEnv("remote.client_id", "POLYRUN_REMOTE_CLIENT_ID", "JDOODLE_CLIENT_ID")
	v.BindEnv("remote.client_secret", "POLYRUN_REMOTE_CLIENT_SECRET", "JDOODLE_CLIENT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Credentials returns the remote service credentials.
func (c *Config) Credentials() remote.Credentials {
	return remote.Credentials{ClientID: c.Remote.ClientID, ClientSecret: c.Remote.ClientSecret}
}

// Registry loads the language registry: the configured file, or the one
// built into the binary.
func (c *Config) Registry() (*language.Registry, error) {
	if c.Languages.File == "" {
		return language.Builtin(), nil
	}
	return language.LoadFile(c.Languages.File)
}

// Logger builds the process logger.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

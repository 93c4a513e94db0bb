package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the daemon configuration loaded from file, environment and
// flags, in increasing precedence.
type Config struct {
	Broker struct {
		URL      string `mapstructure:"url"`
		ClientID string `mapstructure:"client_id"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"broker"`

	Model struct {
		Provider string `mapstructure:"provider"` // anthropic or openai
		Name     string `mapstructure:"name"`
		APIKey   string `mapstructure:"api_key"`
	} `mapstructure:"model"`

	Memory struct {
		// Path to the sqlite database. Empty selects the in-process store.
		Path string `mapstructure:"path"`
	} `mapstructure:"memory"`

	Loop struct {
		MaxIterations int `mapstructure:"max_iterations"`
	} `mapstructure:"loop"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// loadConfig reads lotusd.yaml from the usual locations, then applies
// LOTUS_* environment overrides. A missing config file is not an error; the
// defaults stand.
func loadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetConfigName("lotusd")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.lotus")
		v.AddConfigPath("/etc/lotus")
	}

	v.SetEnvPrefix("LOTUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("broker.url", "mqtt://localhost:1883")
	v.SetDefault("broker.client_id", "lotusd")
	v.SetDefault("model.provider", "anthropic")
	v.SetDefault("loop.max_iterations", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.Model.Provider {
	case "anthropic", "openai":
	default:
		return Config{}, fmt.Errorf("unsupported model provider %q", cfg.Model.Provider)
	}

	return cfg, nil
}

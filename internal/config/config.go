// Package config loads process configuration from the environment and an
// optional agentcal.yaml file.
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds everything the binary needs at startup.
type Config struct {
	HTTPAddress string
	DBPath      string

	// OAuth client registration
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// Token encryption at rest: a base64 32-byte key wins over a passphrase.
	TokenEncryptionKey      string
	TokenEncryptionPassword string

	// Per-provider API keys picked up as initial credentials.
	OpenAIAPIKey string
	GeminiAPIKey string
	ClaudeAPIKey string

	// Optional provider catalog override file.
	ProviderCatalogPath string
}

// Load reads configuration with environment variables taking precedence over
// the config file, and defaults below both.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":             "HTTP_ADDRESS",
		"DBPath":                  "DB_PATH",
		"GoogleClientID":          "GOOGLE_CLIENT_ID",
		"GoogleClientSecret":      "GOOGLE_CLIENT_SECRET",
		"OAuthRedirectURL":        "OAUTH_REDIRECT_URL",
		"TokenEncryptionKey":      "TOKEN_ENCRYPTION_KEY",
		"TokenEncryptionPassword": "TOKEN_ENCRYPTION_PASSWORD",
		"OpenAIAPIKey":            "OPENAI_API_KEY",
		"GeminiAPIKey":            "GEMINI_API_KEY",
		"ClaudeAPIKey":            "CLAUDE_API_KEY",
		"ProviderCatalogPath":     "PROVIDER_CATALOG_PATH",
	}
	for key, envVar := range envMappings {
		if err := v.BindEnv(key, envVar); err != nil {
			return nil, fmt.Errorf("bind %s: %w", envVar, err)
		}
	}

	v.SetConfigName("agentcal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.agentcal")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Debug().Msg("no config file found, using environment and defaults")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("using config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", "127.0.0.1:8080")
	v.SetDefault("DBPath", "agentcal.db")
	v.SetDefault("TokenEncryptionPassword", "default-dev-password")
}

// ProviderKey returns the configured API key for a provider id, with
// placeholder template values treated as unset.
func (c *Config) ProviderKey(providerID string) string {
	var key string
	switch providerID {
	case "openai":
		key = c.OpenAIAPIKey
	case "gemini":
		key = c.GeminiAPIKey
	case "claude":
		key = c.ClaudeAPIKey
	}
	if IsPlaceholder(key) {
		return ""
	}
	return key
}

// IsPlaceholder reports whether a value looks like an untouched env template
// entry ("your_openai_api_key_here") or is empty.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "your_") || strings.HasSuffix(v, "_here")
}

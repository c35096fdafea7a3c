// Package config loads memkit configuration from ~/.memkit/config.yaml,
// overridable through MEMKIT_* environment variables. ANTHROPIC_API_KEY is
// honored directly so the common case needs no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all memkit configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "sqlite" or "chromem"
	Path    string `mapstructure:"path"`    // resolved at runtime when empty
}

type LLMConfig struct {
	Provider     string `mapstructure:"provider"` // "anthropic", "claude-cli", "ollama"
	Model        string `mapstructure:"model"`
	AnthropicKey string `mapstructure:"anthropic_key"`
	OllamaURL    string `mapstructure:"ollama_url"`
	OllamaModel  string `mapstructure:"ollama_model"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // "ollama" or "hash"
	OllamaURL  string `mapstructure:"ollama_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8787,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		LLM: LLMConfig{
			Provider: "anthropic",
			Model:    "claude-haiku-4-5-20251001",
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			OllamaURL:  "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
	}
}

// ConfigDir returns ~/.memkit, creating nothing.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".memkit"), nil
}

// Load reads the config file and environment. A missing config file is not
// an error; defaults and environment carry the day.
func Load() (Config, error) {
	v := viper.New()
	def := Default()

	v.SetDefault("server.bind", def.Server.Bind)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("llm.provider", def.LLM.Provider)
	v.SetDefault("llm.model", def.LLM.Model)
	v.SetDefault("embedding.provider", def.Embedding.Provider)
	v.SetDefault("embedding.ollama_url", def.Embedding.OllamaURL)
	v.SetDefault("embedding.model", def.Embedding.Model)
	v.SetDefault("embedding.dimensions", def.Embedding.Dimensions)

	v.SetEnvPrefix("MEMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := ConfigDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.LLM.AnthropicKey == "" {
		cfg.LLM.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

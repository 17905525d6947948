package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider ids in the static catalog.
const (
	ProviderSimulator = "simulator"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderClaude    = "claude"
)

// ProviderConfig is one immutable catalog entry.
type ProviderConfig struct {
	ID                 string   `yaml:"id" json:"id"`
	DisplayName        string   `yaml:"display_name" json:"display_name"`
	RequiresCredential bool     `yaml:"requires_credential" json:"requires_credential"`
	ModelOptions       []string `yaml:"model_options" json:"model_options"`
}

// DefaultCatalog is the built-in provider set.
func DefaultCatalog() []ProviderConfig {
	return []ProviderConfig{
		{
			ID:          ProviderSimulator,
			DisplayName: "Offline Simulator",
		},
		{
			ID:                 ProviderOpenAI,
			DisplayName:        "OpenAI GPT",
			RequiresCredential: true,
			ModelOptions:       []string{DefaultOpenAIModel, "gpt-4o-mini", "gpt-4o"},
		},
		{
			ID:                 ProviderGemini,
			DisplayName:        "Google Gemini",
			RequiresCredential: true,
			ModelOptions:       []string{DefaultGeminiModel, "gemini-1.5-pro"},
		},
		{
			ID:                 ProviderClaude,
			DisplayName:        "Anthropic Claude",
			RequiresCredential: true,
			ModelOptions:       []string{DefaultClaudeModel, "claude-3-5-sonnet-latest"},
		},
	}
}

type catalogFile struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// LoadCatalogFile reads a catalog override from yaml. Entries without an id
// are rejected; an empty file yields an error rather than an empty catalog.
func LoadCatalogFile(path string) ([]ProviderConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("provider catalog %s declares no providers", path)
	}
	for i, p := range file.Providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider catalog entry %d has no id", i)
		}
	}
	return file.Providers, nil
}

// Catalog is an ordered, immutable lookup of provider configs.
type Catalog struct {
	order []string
	byID  map[string]ProviderConfig
}

// NewCatalog indexes the given entries, keeping their order.
func NewCatalog(configs []ProviderConfig) *Catalog {
	c := &Catalog{byID: make(map[string]ProviderConfig, len(configs))}
	for _, cfg := range configs {
		if _, dup := c.byID[cfg.ID]; dup {
			continue
		}
		c.byID[cfg.ID] = cfg
		c.order = append(c.order, cfg.ID)
	}
	return c
}

// Get returns the entry for id.
func (c *Catalog) Get(id string) (ProviderConfig, bool) {
	cfg, ok := c.byID[id]
	return cfg, ok
}

// List returns all entries in catalog order.
func (c *Catalog) List() []ProviderConfig {
	out := make([]ProviderConfig, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

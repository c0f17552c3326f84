// Package config loads the service configuration: the text-provider file
// that selects which LLM refines content, and the service-level settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProvidersFile is the provider configuration file name, looked up
// relative to the working directory.
const DefaultProvidersFile = "text_providers.yaml"

// Provider is one configured text-generation backend.
type Provider struct {
	Type            string  `yaml:"type"`
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// TextProviders is the provider configuration file: a set of named backends
// and the one currently active.
type TextProviders struct {
	ActiveProvider string              `yaml:"active_provider"`
	Providers      map[string]Provider `yaml:"providers"`
}

// defaultTextProviders is used when no configuration file exists.
func defaultTextProviders() *TextProviders {
	return &TextProviders{
		ActiveProvider: "openai",
		Providers: map[string]Provider{
			"openai": {
				Type:            "openai",
				Model:           "gpt-4o-mini",
				Temperature:     1.0,
				MaxOutputTokens: 8000,
			},
		},
	}
}

// LoadTextProviders reads the provider configuration. A missing file yields
// the defaults; a present but unparseable file is an error, silently running
// on defaults when the operator wrote a config would be worse.
func LoadTextProviders(path string) (*TextProviders, error) {
	if path == "" {
		path = DefaultProvidersFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultTextProviders(), nil
		}
		return nil, fmt.Errorf("read provider config: %w", err)
	}

	var cfg TextProviders
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse provider config: %w", err)
	}
	if cfg.ActiveProvider == "" && len(cfg.Providers) == 0 {
		return defaultTextProviders(), nil
	}
	return &cfg, nil
}

// Active resolves the active provider. The API key may come from the file or
// from the environment (OPENAI_API_KEY as the conventional fallback).
func (c *TextProviders) Active() (Provider, error) {
	provider, ok := c.Providers[c.ActiveProvider]
	if !ok {
		return Provider{}, fmt.Errorf("文本服务商 [%s] 不存在", c.ActiveProvider)
	}

	if provider.APIKey == "" {
		provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if provider.APIKey == "" {
		return Provider{}, fmt.Errorf("文本服务商 [%s] 未配置 API Key", c.ActiveProvider)
	}
	return provider, nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	perrors "parlor/src/errors"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
)

type Settings struct {
	OpenAI  OpenAIConfig  `toml:"openai"`
	Memory  MemoryConfig  `toml:"memory"`
	Journal JournalConfig `toml:"journal"`
	Daemon  DaemonConfig  `toml:"daemon"`
	Prompt  PromptConfig  `toml:"prompt"`
}

type OpenAIConfig struct {
	APIKey        string   `toml:"api_key"`
	BaseURL       string   `toml:"base_url"`
	Model         string   `toml:"model"`
	DecisionModel string   `toml:"decision_model"`
	Timeout       Duration `toml:"timeout"`
}

// MemoryConfig bounds how much of a transcript is sent as context.
// ContextWindow of 0 sends the whole transcript.
type MemoryConfig struct {
	ContextWindow int `toml:"context_window"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type DaemonConfig struct {
	Socket string `toml:"socket"`
}

type PromptConfig struct {
	Context bool `toml:"context"`
}

// Duration decodes TOML strings like "45s" into a time.Duration
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultSettings returns the settings used when no config file exists
func DefaultSettings() *Settings {
	return &Settings{
		OpenAI: OpenAIConfig{
			BaseURL:       DefaultBaseURL,
			Model:         DefaultModel,
			DecisionModel: DefaultModel,
			Timeout:       Duration{DefaultTimeout},
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(GetDataDir(), "parlor.db"),
		},
		Daemon: DaemonConfig{
			Socket: GetSocketPath(),
		},
	}
}

// LoadSettings reads config.toml from the config directory on top of the defaults
func LoadSettings() (*Settings, error) {
	configPath, err := GetConfigFile()
	if err != nil {
		return DefaultSettings(), nil
	}
	return LoadSettingsFrom(configPath)
}

// LoadSettingsFrom reads the given TOML file on top of the defaults.
// A missing file is not an error.
func LoadSettingsFrom(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), settings); err != nil {
		return nil, perrors.WrapWithContext(perrors.ErrConfiguration, "failed to parse %s: %v", path, err)
	}

	return settings, nil
}

// Validate checks the settings needed before a session can be constructed
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.OpenAI.APIKey) == "" {
		return fmt.Errorf("%w: set openai.api_key, PARLOR_OPENAI_API_KEY or OPENAI_API_KEY", perrors.ErrMissingAPIKey)
	}
	if u, err := url.Parse(s.OpenAI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &perrors.ValidationError{Field: "openai.base_url", Value: s.OpenAI.BaseURL, Message: "must be an absolute URL"}
	}
	if s.OpenAI.Model == "" {
		return &perrors.ValidationError{Field: "openai.model", Message: "must not be empty"}
	}
	if s.OpenAI.DecisionModel == "" {
		return &perrors.ValidationError{Field: "openai.decision_model", Message: "must not be empty"}
	}
	if s.OpenAI.Timeout.Duration < 0 {
		return &perrors.ValidationError{Field: "openai.timeout", Value: s.OpenAI.Timeout.Duration, Message: "must not be negative"}
	}
	if s.Memory.ContextWindow < 0 {
		return &perrors.ValidationError{Field: "memory.context_window", Value: s.Memory.ContextWindow, Message: "must not be negative"}
	}
	return nil
}

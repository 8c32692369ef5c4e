package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

const (
	ModeAll      = "all"
	ModeBackend  = "backend"
	ModeFrontend = "frontend"

	defaultPort           = 5000
	defaultTimeoutSeconds = 60
	defaultMaxUploadBytes = 50 << 20
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type" validate:"oneof=sqlite postgres"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

type DetectionConfig struct {
	AuthenticThreshold float64 `yaml:"authenticThreshold" validate:"gte=0,lte=1"`
	TamperedThreshold  float64 `yaml:"tamperedThreshold" validate:"gte=0,lte=1"`
}

type BackendConfig struct {
	Database       Database                     `yaml:"database"`
	MaxUploadBytes int64                        `yaml:"maxUploadBytes" validate:"gt=0"`
	Commands       []CommandConfig              `yaml:"commands"`
	Detection      DetectionConfig              `yaml:"detection"`
	Policy         map[string]map[string]string `yaml:"policy"`
}

// EmbedProfile configures one embed page: where images go and how failures surface.
type EmbedProfile struct {
	Name     string `yaml:"name" validate:"required,alphanum"`
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	// CheckStatus treats non-2xx responses as failures.
	CheckStatus bool `yaml:"checkStatus"`
	// Guard disables the trigger while a request is pending and rejects concurrent submissions.
	Guard bool `yaml:"guard"`
	// ReportErrors shows failures to the user instead of only logging them.
	ReportErrors bool `yaml:"reportErrors"`
	// DownloadButton reveals a separate download button instead of a rendered link.
	DownloadButton bool `yaml:"downloadButton"`
}

type VerifyConfig struct {
	Endpoint     string   `yaml:"endpoint" validate:"required,url"`
	ReportErrors bool     `yaml:"reportErrors"`
	Contexts     []string `yaml:"contexts"`
}

type StoreConfig struct {
	Type       string `yaml:"type" validate:"oneof=memory redis"`
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db" validate:"gte=0"`
	TTLSeconds int    `yaml:"ttlSeconds" validate:"gte=0"`
}

type FrontendConfig struct {
	TimeoutSeconds int            `yaml:"timeoutSeconds" validate:"gt=0"`
	Embed          []EmbedProfile `yaml:"embed" validate:"dive"`
	Verify         VerifyConfig   `yaml:"verify"`
	Store          StoreConfig    `yaml:"store"`
}

type ServiceConfig struct {
	Port     int            `yaml:"port" validate:"gte=0,lte=65535"`
	Mode     string         `yaml:"mode" validate:"oneof=all backend frontend"`
	LogLevel string         `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Backend  BackendConfig  `yaml:"backend"`
	Frontend FrontendConfig `yaml:"frontend"`
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		data, err = tomlToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

// ParseConfig parses YAML configuration, applies defaults and validates the result
func ParseConfig(data []byte) (*ServiceConfig, error) {
	var config ServiceConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := validateCommands(config.Backend.Commands); err != nil {
		return nil, fmt.Errorf("invalid command configuration: %w", err)
	}

	detection := config.Backend.Detection
	if detection.AuthenticThreshold > 0 && detection.TamperedThreshold > detection.AuthenticThreshold {
		return nil, fmt.Errorf("tamperedThreshold (%v) must not exceed authenticThreshold (%v)",
			detection.TamperedThreshold, detection.AuthenticThreshold)
	}

	if err := validateProfiles(config.Frontend.Embed); err != nil {
		return nil, fmt.Errorf("invalid embed profile configuration: %w", err)
	}

	return &config, nil
}

// tomlToYAML decodes TOML into a generic document and re-encodes it as YAML so
// both formats share one set of field names and inline command parameters
func tomlToYAML(data []byte) ([]byte, error) {
	var document map[string]any
	if err := toml.Unmarshal(data, &document); err != nil {
		return nil, err
	}
	return yaml.Marshal(document)
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Mode == "" {
		c.Mode = ModeAll
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Backend.Database.Type == "" {
		c.Backend.Database.Type = "sqlite"
	}
	if c.Backend.Database.ConnectionString == "" && c.Backend.Database.Type == "sqlite" {
		c.Backend.Database.ConnectionString = ":memory:"
	}
	if c.Backend.MaxUploadBytes == 0 {
		c.Backend.MaxUploadBytes = defaultMaxUploadBytes
	}
	if len(c.Backend.Commands) == 0 {
		c.Backend.Commands = []CommandConfig{{Name: "WatermarkCommand", Params: map[string]any{}}}
	}

	localBase := fmt.Sprintf("http://127.0.0.1:%d", c.Port)
	if c.Frontend.TimeoutSeconds == 0 {
		c.Frontend.TimeoutSeconds = defaultTimeoutSeconds
	}
	if len(c.Frontend.Embed) == 0 {
		c.Frontend.Embed = []EmbedProfile{
			{Name: "local", Endpoint: localBase + "/embed"},
			{Name: "hosted", Endpoint: localBase + "/embed", CheckStatus: true, Guard: true, ReportErrors: true, DownloadButton: true},
		}
	}
	if c.Frontend.Verify.Endpoint == "" {
		c.Frontend.Verify.Endpoint = localBase + "/verify"
	}
	if len(c.Frontend.Verify.Contexts) == 0 {
		c.Frontend.Verify.Contexts = []string{
			"legal_government",
			"education_exam",
			"healthcare_medical",
			"media_marketing",
			"creative_entertainment",
		}
	}
	if c.Frontend.Store.Type == "" {
		c.Frontend.Store.Type = "memory"
	}
}

// Profile returns the embed profile with the given name
func (c *FrontendConfig) Profile(name string) (EmbedProfile, bool) {
	for _, profile := range c.Embed {
		if profile.Name == name {
			return profile, true
		}
	}
	return EmbedProfile{}, false
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		// Validate name is not empty
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}

		// Validate name is unique
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}

func validateProfiles(profiles []EmbedProfile) error {
	seenNames := make(map[string]bool)
	for _, profile := range profiles {
		if seenNames[profile.Name] {
			return fmt.Errorf("duplicate embed profile name: %s", profile.Name)
		}
		seenNames[profile.Name] = true
	}
	return nil
}

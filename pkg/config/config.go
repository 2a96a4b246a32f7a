// Package config loads settings for the ticket CLI from a config file and
// TICKET_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yapishu/up8-ticket/pkg/codec"
	"github.com/yapishu/up8-ticket/pkg/crypto/entropy"
	"github.com/yapishu/up8-ticket/pkg/crypto/shamir"
	"github.com/yapishu/up8-ticket/pkg/storage"
	"github.com/yapishu/up8-ticket/pkg/ticket"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TICKET_DEFAULTS_BITS.
	EnvPrefix = "TICKET"

	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "TICKET_CONFIG"

	appDir       = "ticket"
	configName   = "config.yaml"
	profilesName = "profiles.json"
)

type Config struct {
	Version   string          `mapstructure:"version" json:"version" yaml:"version"`
	Defaults  DefaultSettings `mapstructure:"defaults" json:"defaults" yaml:"defaults"`
	Auxiliary AuxiliaryConfig `mapstructure:"auxiliary" json:"auxiliary" yaml:"auxiliary"`
	Derive    DeriveConfig    `mapstructure:"derive" json:"derive" yaml:"derive"`
	Storage   StorageConfig   `mapstructure:"storage" json:"storage" yaml:"storage"`
	UI        UIConfig        `mapstructure:"ui" json:"ui" yaml:"ui"`
}

// DefaultSettings are used when the corresponding flag is not given.
type DefaultSettings struct {
	Bits      int    `mapstructure:"bits" json:"bits" yaml:"bits"`
	Strategy  string `mapstructure:"strategy" json:"strategy" yaml:"strategy"`
	Codec     string `mapstructure:"codec" json:"codec" yaml:"codec"`
	Parts     int    `mapstructure:"parts" json:"parts" yaml:"parts"`
	Threshold int    `mapstructure:"threshold" json:"threshold" yaml:"threshold"`
	Mnemonic  bool   `mapstructure:"mnemonic" json:"mnemonic" yaml:"mnemonic"`
}

type AuxiliaryConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	MaxSamples int           `mapstructure:"max_samples" json:"max_samples" yaml:"max_samples"`
}

// DeriveConfig holds the argon2id parameters for BIP32 seeds.
type DeriveConfig struct {
	Path      string `mapstructure:"path" json:"path" yaml:"path"`
	Salt      string `mapstructure:"salt" json:"salt" yaml:"salt"`
	Time      uint32 `mapstructure:"time" json:"time" yaml:"time"`
	MemoryKiB uint32 `mapstructure:"memory_kib" json:"memory_kib" yaml:"memory_kib"`
	Threads   uint8  `mapstructure:"threads" json:"threads" yaml:"threads"`
}

// StorageConfig holds the argon2id parameters for sealed share files.
type StorageConfig struct {
	Time      uint32 `mapstructure:"time" json:"time" yaml:"time"`
	MemoryKiB uint32 `mapstructure:"memory_kib" json:"memory_kib" yaml:"memory_kib"`
	Threads   uint8  `mapstructure:"threads" json:"threads" yaml:"threads"`
}

type UIConfig struct {
	UseColor       bool   `mapstructure:"use_color" json:"use_color" yaml:"use_color"`
	ConfirmActions bool   `mapstructure:"confirm_actions" json:"confirm_actions" yaml:"confirm_actions"`
	OutputFormat   string `mapstructure:"output_format" json:"output_format" yaml:"output_format"` // text, json, yaml
}

// ShareProfile is a named parts/threshold preset, e.g. "family" for 3-of-5.
type ShareProfile struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Parts       int      `json:"parts" yaml:"parts"`
	Threshold   int      `json:"threshold" yaml:"threshold"`
	Codec       string   `json:"codec,omitempty" yaml:"codec,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func (p *ShareProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	cfg := shamir.Config{Parts: p.Parts, Threshold: p.Threshold}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("profile '%s': %w", p.Name, err)
	}
	if p.Codec != "" {
		if _, err := codec.ByName(p.Codec); err != nil {
			return fmt.Errorf("profile '%s': %w", p.Name, err)
		}
	}
	return nil
}

type ConfigManager struct {
	config     *Config
	configPath string
	profiles   map[string]*ShareProfile
}

// NewConfigManager loads the config at path, or at the resolved default
// location when path is empty. A missing file is not an error.
func NewConfigManager(path string) (*ConfigManager, error) {
	if path == "" {
		resolved, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	cm := &ConfigManager{
		configPath: path,
		profiles:   make(map[string]*ShareProfile),
	}

	if err := cm.LoadConfig(); err != nil {
		return nil, err
	}
	if err := cm.LoadProfiles(); err != nil {
		return nil, err
	}

	return cm, nil
}

func DefaultConfig() *Config {
	kdf := storage.DefaultKDFParams()
	return &Config{
		Version: "1",
		Defaults: DefaultSettings{
			Bits:      256,
			Strategy:  string(ticket.Mixed),
			Codec:     "q",
			Parts:     5,
			Threshold: 3,
			Mnemonic:  false,
		},
		Auxiliary: AuxiliaryConfig{
			Timeout:    entropy.DefaultAuxiliaryTimeout,
			MaxSamples: 0,
		},
		Derive: DeriveConfig{
			Path:      "m/44'/0'/0'/0/0",
			Salt:      "",
			Time:      3,
			MemoryKiB: 64 * 1024,
			Threads:   4,
		},
		Storage: StorageConfig{
			Time:      kdf.Time,
			MemoryKiB: kdf.MemoryKiB,
			Threads:   kdf.Threads,
		},
		UI: UIConfig{
			UseColor:       true,
			ConfirmActions: true,
			OutputFormat:   "text",
		},
	}
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("version", c.Version)
	v.SetDefault("defaults.bits", c.Defaults.Bits)
	v.SetDefault("defaults.strategy", c.Defaults.Strategy)
	v.SetDefault("defaults.codec", c.Defaults.Codec)
	v.SetDefault("defaults.parts", c.Defaults.Parts)
	v.SetDefault("defaults.threshold", c.Defaults.Threshold)
	v.SetDefault("defaults.mnemonic", c.Defaults.Mnemonic)
	v.SetDefault("auxiliary.timeout", c.Auxiliary.Timeout)
	v.SetDefault("auxiliary.max_samples", c.Auxiliary.MaxSamples)
	v.SetDefault("derive.path", c.Derive.Path)
	v.SetDefault("derive.salt", c.Derive.Salt)
	v.SetDefault("derive.time", c.Derive.Time)
	v.SetDefault("derive.memory_kib", c.Derive.MemoryKiB)
	v.SetDefault("derive.threads", c.Derive.Threads)
	v.SetDefault("storage.time", c.Storage.Time)
	v.SetDefault("storage.memory_kib", c.Storage.MemoryKiB)
	v.SetDefault("storage.threads", c.Storage.Threads)
	v.SetDefault("ui.use_color", c.UI.UseColor)
	v.SetDefault("ui.confirm_actions", c.UI.ConfirmActions)
	v.SetDefault("ui.output_format", c.UI.OutputFormat)
}

// LoadConfig reads defaults, then the config file if present, then
// environment overrides.
func (cm *ConfigManager) LoadConfig() error {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(cm.configPath)
	if ext := strings.TrimPrefix(filepath.Ext(cm.configPath), "."); ext == "" {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to parse config %s: %w", cm.configPath, err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cm.configPath, err)
	}

	cm.config = config
	return nil
}

// SaveConfig writes the current config as YAML, or JSON for a .json path.
func (cm *ConfigManager) SaveConfig() error {
	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(cm.configPath), ".json") {
		data, err = json.MarshalIndent(cm.config, "", "  ")
	} else {
		data, err = yaml.Marshal(cm.config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

func (cm *ConfigManager) SetConfig(config *Config) {
	cm.config = config
}

func (cm *ConfigManager) Path() string {
	return cm.configPath
}

func (cm *ConfigManager) profilesPath() string {
	return filepath.Join(filepath.Dir(cm.configPath), profilesName)
}

func (cm *ConfigManager) LoadProfiles() error {
	data, err := os.ReadFile(cm.profilesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	profiles := make(map[string]*ShareProfile)
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("failed to parse profiles: %w", err)
	}

	cm.profiles = profiles
	return nil
}

func (cm *ConfigManager) SaveProfiles() error {
	if err := os.MkdirAll(filepath.Dir(cm.profilesPath()), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.WriteFile(cm.profilesPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}

	return nil
}

func (cm *ConfigManager) AddProfile(profile *ShareProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	cm.profiles[profile.Name] = profile
	return cm.SaveProfiles()
}

func (cm *ConfigManager) GetProfile(name string) (*ShareProfile, error) {
	profile, exists := cm.profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}
	return profile, nil
}

// ListProfiles returns profiles sorted by name.
func (cm *ConfigManager) ListProfiles() []*ShareProfile {
	profiles := make([]*ShareProfile, 0, len(cm.profiles))
	for _, profile := range cm.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles
}

func (cm *ConfigManager) DeleteProfile(name string) error {
	if _, exists := cm.profiles[name]; !exists {
		return fmt.Errorf("profile '%s' not found", name)
	}

	delete(cm.profiles, name)
	return cm.SaveProfiles()
}

// ConfigPath resolves the config file: $TICKET_CONFIG, then
// $XDG_CONFIG_HOME/ticket/config.yaml, then ~/.config/ticket/config.yaml.
func ConfigPath() (string, error) {
	if customPath := os.Getenv(EnvConfigPath); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDir, configName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appDir, configName), nil
}

func (c *Config) Validate() error {
	if _, err := entropy.ValidateBits(c.Defaults.Bits); err != nil {
		return fmt.Errorf("defaults.bits: %w", err)
	}
	if _, err := ticket.ParseStrategy(c.Defaults.Strategy); err != nil {
		return fmt.Errorf("defaults.strategy: %w", err)
	}
	if _, err := codec.ByName(c.Defaults.Codec); err != nil {
		return fmt.Errorf("defaults.codec: %w", err)
	}

	split := shamir.Config{Parts: c.Defaults.Parts, Threshold: c.Defaults.Threshold}
	if err := split.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if c.Auxiliary.Timeout <= 0 {
		return fmt.Errorf("auxiliary.timeout must be positive")
	}
	if c.Auxiliary.MaxSamples < 0 {
		return fmt.Errorf("auxiliary.max_samples cannot be negative")
	}

	if err := c.KDFParams().Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	switch c.UI.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("ui.output_format must be text, json or yaml, got %q", c.UI.OutputFormat)
	}

	return nil
}

// AuxiliarySource builds the timing-jitter collector these settings describe.
func (c *Config) AuxiliarySource() *entropy.Auxiliary {
	aux := entropy.NewAuxiliary()
	aux.Timeout = c.Auxiliary.Timeout
	aux.MaxSamples = c.Auxiliary.MaxSamples
	return aux
}

// KDFParams returns the sealing cost parameters for share files.
func (c *Config) KDFParams() storage.KDFParams {
	return storage.KDFParams{
		Time:      c.Storage.Time,
		MemoryKiB: c.Storage.MemoryKiB,
		Threads:   c.Storage.Threads,
	}
}

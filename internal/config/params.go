package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical parameter defaults file.
const DefaultConfigPath = "config/params.defaults.json"

// Config is the root configuration for a phase sensing session. Scalar
// fields are pointers so that partial files can be merged with defaults via
// the Get* accessors.
type Config struct {
	Project   *string `json:"project,omitempty" yaml:"project,omitempty"`
	RepoName  *string `json:"repo_name,omitempty" yaml:"repo_name,omitempty"`
	SensorDef *string `json:"sensor_def,omitempty" yaml:"sensor_def,omitempty"`

	AutoSelect    *bool    `json:"auto_select,omitempty" yaml:"auto_select,omitempty"`
	ReadRate      *int     `json:"read_rate,omitempty" yaml:"read_rate,omitempty"`
	MaxTagHistory *int     `json:"max_tag_history,omitempty" yaml:"max_tag_history,omitempty"`
	RSSIThreshold *float64 `json:"rssi_threshold,omitempty" yaml:"rssi_threshold,omitempty"`
	IsDTW         *bool    `json:"is_dtw,omitempty" yaml:"is_dtw,omitempty"`

	StoreData         *bool   `json:"store_data,omitempty" yaml:"store_data,omitempty"`
	DataDir           *string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	BroadcastInterval *string `json:"broadcast_interval,omitempty" yaml:"broadcast_interval,omitempty"` // duration string like "1s"

	Reader  ReaderSettings  `json:"reader" yaml:"reader"`
	Report  ReportSettings  `json:"report" yaml:"report"`
	Serial  SerialSettings  `json:"serial" yaml:"serial"`
	MQTT    MQTTSettings    `json:"mqtt" yaml:"mqtt"`
	Sensors []SensorProfile `json:"sensors" yaml:"sensors"`

	profilesOnce sync.Once
	profiles     *Profiles
	profilesErr  error
}

// SerialSettings mirrors serialmux.PortOptions.
type SerialSettings struct {
	BaudRate int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty" yaml:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty" yaml:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty" yaml:"parity,omitempty"`
}

// MQTTSettings configures the optional MQTT broadcast sink. An empty Broker
// disables it.
type MQTTSettings struct {
	Broker   string `json:"broker,omitempty" yaml:"broker,omitempty"`
	Topic    string `json:"topic,omitempty" yaml:"topic,omitempty"`
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	QoS      byte   `json:"qos,omitempty" yaml:"qos,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with all scalar fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON or YAML file, chosen by extension.
// Omitted fields fall back to the Get* defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, ext)
}

// ParseConfig decodes and validates raw config bytes. format is a file
// extension (".json", ".yaml" or ".yml").
func ParseConfig(data []byte, format string) (*Config, error) {
	cfg := EmptyConfig()
	switch strings.ToLower(format) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/*
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.ReadRate != nil && *c.ReadRate <= 0 {
		return fmt.Errorf("read_rate must be positive, got %d", *c.ReadRate)
	}
	if c.MaxTagHistory != nil && *c.MaxTagHistory <= 0 {
		return fmt.Errorf("max_tag_history must be positive, got %d", *c.MaxTagHistory)
	}
	if c.BroadcastInterval != nil && *c.BroadcastInterval != "" {
		d, err := time.ParseDuration(*c.BroadcastInterval)
		if err != nil {
			return fmt.Errorf("invalid broadcast_interval '%s': %w", *c.BroadcastInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("broadcast_interval must be positive, got %s", d)
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if err := c.Reader.Validate(); err != nil {
		return err
	}
	if _, err := NewProfiles(c.Sensors); err != nil {
		return err
	}
	return nil
}

// Profiles returns the sensor profile store built from Sensors. The store is
// built once; Sensors must not be modified afterwards.
func (c *Config) Profiles() (*Profiles, error) {
	c.profilesOnce.Do(func() {
		c.profiles, c.profilesErr = NewProfiles(c.Sensors)
	})
	return c.profiles, c.profilesErr
}

// GetProject returns the project name or the default.
func (c *Config) GetProject() string {
	if c.Project == nil || *c.Project == "" {
		return "zensetag"
	}
	return *c.Project
}

// GetRepoName returns the repository name or the default.
func (c *Config) GetRepoName() string {
	if c.RepoName == nil || *c.RepoName == "" {
		return "zensetag"
	}
	return *c.RepoName
}

// GetSensorDef returns the initially selected profile name, lower-cased.
func (c *Config) GetSensorDef() string {
	if c.SensorDef == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*c.SensorDef))
}

// GetAutoSelect returns the auto_select value or the default.
func (c *Config) GetAutoSelect() bool {
	if c.AutoSelect == nil {
		return true
	}
	return *c.AutoSelect
}

// GetReadRate returns the reader's nominal reads per second.
func (c *Config) GetReadRate() int {
	if c.ReadRate == nil {
		return 100
	}
	return *c.ReadRate
}

// GetMaxTagHistory returns the tag buffer capacity.
func (c *Config) GetMaxTagHistory() int {
	if c.MaxTagHistory == nil {
		return 5000
	}
	return *c.MaxTagHistory
}

// GetRSSIThreshold returns the RSSI floor in dBm. Reads at or below it are
// dropped.
func (c *Config) GetRSSIThreshold() float64 {
	if c.RSSIThreshold == nil {
		return -60
	}
	return *c.RSSIThreshold
}

// GetIsDTW returns whether warped alignment is enabled.
func (c *Config) GetIsDTW() bool {
	if c.IsDTW == nil {
		return false
	}
	return *c.IsDTW
}

// GetStoreData returns whether phase history is exported on shutdown.
func (c *Config) GetStoreData() bool {
	if c.StoreData == nil {
		return false
	}
	return *c.StoreData
}

// GetDataDir returns the export root directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "data"
	}
	return *c.DataDir
}

// GetBroadcastInterval parses and returns BroadcastInterval.
func (c *Config) GetBroadcastInterval() time.Duration {
	if c.BroadcastInterval == nil || *c.BroadcastInterval == "" {
		return time.Second // default
	}
	d, err := time.ParseDuration(*c.BroadcastInterval)
	if err != nil || d <= 0 {
		return time.Second // default on parse error
	}
	return d
}

// DualTarget reports whether the reader runs the project's tuned settings.
// Other deployments fall back to conservative single-target defaults.
func (c *Config) DualTarget() bool {
	return strings.EqualFold(c.GetProject(), c.GetRepoName())
}

// GetMQTTTopic returns the MQTT topic or the default.
func (c *Config) GetMQTTTopic() string {
	if c.MQTT.Topic == "" {
		return c.GetProject() + "/phase"
	}
	return c.MQTT.Topic
}

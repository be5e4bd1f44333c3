package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBodies     = 1024
	DefaultFrames     = 100
	DefaultWriteStep  = 10
	DefaultThreads    = 1
	DefaultIntegrator = "euler"
	DefaultDataDir    = ".nbody"
	DefaultLogLevel   = "info"

	// Buffers are capped so an oversized body count fails with a labelled
	// allocation error instead of exhausting the process.
	DefaultHostLimit   int64 = 4 << 30
	DefaultDeviceLimit int64 = 4 << 30
)

// Integrators accepted by the driver, keyed by name. The numeric aliases
// match the original -I flag values.
var Integrators = map[string]string{
	"euler":       "euler",
	"1":           "euler",
	"verlet":      "verlet",
	"2":           "verlet",
	"forest-ruth": "forest-ruth",
	"4":           "forest-ruth",
}

type Config struct {
	StartFrame int    `yaml:"start_frame" toml:"start_frame"`
	Bodies     int    `yaml:"bodies" toml:"bodies"`
	Frames     int    `yaml:"frames" toml:"frames"`
	WriteStep  int    `yaml:"write_step" toml:"write_step"`
	Threads    int    `yaml:"threads" toml:"threads"`
	Integrator string `yaml:"integrator" toml:"integrator"`
	Benchmark  bool   `yaml:"benchmark" toml:"benchmark"`
	Backups    bool   `yaml:"backups" toml:"backups"`
	Catalogue  string `yaml:"catalogue" toml:"catalogue"`
	GPU        bool   `yaml:"gpu" toml:"gpu"`
	DataDir    string `yaml:"data_dir" toml:"data_dir"`
	LogLevel   string `yaml:"log_level" toml:"log_level"`

	// Memory caps in bytes. Zero selects the default cap; there is no
	// unlimited setting.
	HostLimit   int64 `yaml:"host_limit" toml:"host_limit"`
	DeviceLimit int64 `yaml:"device_limit" toml:"device_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		Bodies:      DefaultBodies,
		Frames:      DefaultFrames,
		WriteStep:   DefaultWriteStep,
		Threads:     DefaultThreads,
		Integrator:  DefaultIntegrator,
		DataDir:     DefaultDataDir,
		LogLevel:    DefaultLogLevel,
		HostLimit:   DefaultHostLimit,
		DeviceLimit: DefaultDeviceLimit,
	}
}

// Load reads a YAML or TOML file, chosen by extension, over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return err
		}
		data = []byte(sb.String())
	default:
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run parameters, normalizes the integrator name and
// fills unset memory caps with the defaults.
func (c *Config) Validate() error {
	if c.Bodies < 1 {
		return fmt.Errorf("config: bodies must be at least 1, got %d", c.Bodies)
	}
	if c.StartFrame < 0 {
		return fmt.Errorf("config: start_frame must not be negative, got %d", c.StartFrame)
	}
	if c.Frames < 0 {
		return fmt.Errorf("config: frames must not be negative, got %d", c.Frames)
	}
	if c.WriteStep < 1 {
		return fmt.Errorf("config: write_step must be at least 1, got %d", c.WriteStep)
	}
	if c.Threads < 1 {
		return fmt.Errorf("config: threads must be at least 1, got %d", c.Threads)
	}
	if c.HostLimit < 0 || c.DeviceLimit < 0 {
		return fmt.Errorf("config: memory limits must not be negative")
	}
	if c.HostLimit == 0 {
		c.HostLimit = DefaultHostLimit
	}
	if c.DeviceLimit == 0 {
		c.DeviceLimit = DefaultDeviceLimit
	}
	name, ok := Integrators[strings.ToLower(strings.TrimSpace(c.Integrator))]
	if !ok {
		return fmt.Errorf("config: unknown integrator %q", c.Integrator)
	}
	c.Integrator = name
	return nil
}

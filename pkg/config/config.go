package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/oisee/slicegrid/pkg/audio"
)

// ControllerType identifies the kind of grid
type ControllerType string

const (
	ControllerVirtual     ControllerType = "virtual"
	ControllerGenericGrid ControllerType = "generic-grid"
)

// ErrInvalid is wrapped by every Validate failure
var ErrInvalid = errors.New("invalid config")

// ControllerConfig selects the grid device
type ControllerConfig struct {
	PortName string         `json:"portName,omitempty"`
	Type     ControllerType `json:"type"`
	Channel  int            `json:"channel,omitempty"`
}

// DistortionConfig enables the bit-crusher on the output
type DistortionConfig struct {
	Enabled bool         `json:"enabled"`
	Params  audio.Params `json:"params"`
}

// Config is the main configuration structure
type Config struct {
	BPM          int    `json:"bpm"`
	LinesPerBeat int    `json:"linesPerBeat"`
	Slices       int    `json:"slices"`
	DrainCap     int    `json:"drainCap"`
	QueueSize    int    `json:"queueSize"`
	SamplePath   string `json:"samplePath"`
	SampleRate   int    `json:"sampleRate"`
	Channels     int    `json:"channels"`
	Patterns     int    `json:"patterns"`

	Distortion DistortionConfig `json:"distortion"`
	Controller ControllerConfig `json:"controller"`

	Debug bool `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BPM:          172,
		LinesPerBeat: 4,
		Slices:       audio.DefaultSlices,
		DrainCap:     audio.DefaultDrainCap,
		QueueSize:    64,
		SamplePath:   "amen.wav",
		SampleRate:   audio.DefaultSampleRate,
		Channels:     2,
		Patterns:     1,
		Distortion: DistortionConfig{
			Enabled: true,
			Params:  audio.NinParams(),
		},
		Controller: ControllerConfig{
			Type: ControllerVirtual,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	return filepath.Join(home, ".config", "slicegrid"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, or returns defaults if
// there is none
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep their
// defaults; a missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expand %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return errors.Wrapf(err, "expand %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0644), "write %s", path)
}

// Validate rejects values the engine cannot run with
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"bpm", c.BPM},
		{"linesPerBeat", c.LinesPerBeat},
		{"slices", c.Slices},
		{"drainCap", c.DrainCap},
		{"queueSize", c.QueueSize},
		{"sampleRate", c.SampleRate},
		{"channels", c.Channels},
		{"patterns", c.Patterns},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return errors.Wrapf(ErrInvalid, "%s must be positive, got %d", f.name, f.value)
		}
	}

	if c.Channels > audio.MaxChannels {
		return errors.Wrapf(ErrInvalid, "channels must be at most %d, got %d", audio.MaxChannels, c.Channels)
	}
	if c.SamplePath == "" {
		return errors.Wrap(ErrInvalid, "samplePath is empty")
	}

	switch c.Controller.Type {
	case ControllerVirtual:
	case ControllerGenericGrid:
		if c.Controller.PortName == "" {
			return errors.Wrap(ErrInvalid, "generic-grid controller needs a portName")
		}
		if c.Controller.Channel < 0 || c.Controller.Channel > 15 {
			return errors.Wrapf(ErrInvalid, "controller channel %d out of range", c.Controller.Channel)
		}
	default:
		return errors.Wrapf(ErrInvalid, "unknown controller type %q", c.Controller.Type)
	}

	if c.Distortion.Enabled {
		p := c.Distortion.Params
		if p.DownsampleFactor <= 0 || p.BitDepth <= 0 {
			return errors.Wrap(ErrInvalid, "distortion bitDepth and downsampleFactor must be positive")
		}
	}
	return nil
}

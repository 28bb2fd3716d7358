// Package config assembles the full robot configuration: defaults,
// optional YAML overrides, and environment variables for secrets.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/astromech/panbot/pkg/audioio"
	"github.com/astromech/panbot/pkg/motion"
	"github.com/astromech/panbot/pkg/perception/detection"
	"github.com/astromech/panbot/pkg/servo"
	"github.com/astromech/panbot/pkg/voice"
)

// Servo backends.
const (
	BackendPCA9685 = "pca9685"
	BackendGPIO    = "gpio"
	BackendDummy   = "dummy"
)

// ServoConfig selects and parameterizes the actuator driver.
type ServoConfig struct {
	// Backend is one of pca9685, gpio, dummy.
	Backend string `yaml:"backend"`

	// I2CDevice and Port apply to the pca9685 backend.
	I2CDevice string `yaml:"i2c_device"`
	Port      int    `yaml:"port"`

	// Pin applies to the gpio backend, e.g. "GPIO18".
	Pin string `yaml:"pin"`
}

// Config is the full robot configuration.
type Config struct {
	Motion   motion.Config        `yaml:"motion"`
	Detector detection.YOLOConfig `yaml:"detector"`
	Audio    audioio.Config       `yaml:"audio"`
	Voice    voice.Config         `yaml:"voice"`
	Servo    ServoConfig          `yaml:"servo"`

	// WebAddr is the dashboard listen address. Empty disables the
	// dashboard.
	WebAddr string `yaml:"web_addr"`

	// SoundsDir holds the WAV effects. Empty disables sound.
	SoundsDir string `yaml:"sounds_dir"`

	// PositionFile, when set, receives the resting angle on shutdown.
	// Startup always homes regardless.
	PositionFile string `yaml:"position_file"`

	// VoiceEnabled turns the wake-word listener on.
	VoiceEnabled bool `yaml:"voice_enabled"`
}

// Default returns the stock robot configuration.
func Default() Config {
	return Config{
		Motion:    motion.DefaultConfig(),
		Detector:  detection.DefaultYOLOConfig(),
		Audio:     audioio.DefaultConfig(),
		Voice:     voice.DefaultConfig(),
		Servo:     ServoConfig{Backend: BackendPCA9685, I2CDevice: "/dev/i2c-1", Port: 0},
		WebAddr:   ":8088",
		SoundsDir: "sounds",
	}
}

// Load reads YAML overrides from path on top of the defaults. A missing
// file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// WriteInUse writes the fully resolved config next to the source file,
// so what the robot actually ran with is inspectable afterwards.
func WriteInUse(cfg Config, path string) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// LoadEnvConfig applies environment overrides. Call after flag parsing.
func (c *Config) LoadEnvConfig() {
	if key := os.Getenv("PANBOT_API_KEY"); key != "" {
		c.Voice.APIKey = key
	}
	if url := os.Getenv("PANBOT_TRANSCRIBE_URL"); url != "" {
		c.Voice.TranscribeURL = url
	}
	if url := os.Getenv("PANBOT_CLASSIFY_URL"); url != "" {
		c.Voice.ClassifyURL = url
	}
	if addr := os.Getenv("PANBOT_WEB_ADDR"); addr != "" {
		c.WebAddr = addr
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Servo.Backend {
	case BackendPCA9685, BackendGPIO, BackendDummy:
	default:
		return fmt.Errorf("config: unknown servo backend %q", c.Servo.Backend)
	}
	if c.VoiceEnabled {
		if err := c.Audio.Validate(); err != nil {
			return err
		}
		if c.Voice.TranscribeURL == "" {
			return fmt.Errorf("config: voice enabled but transcribe_url empty")
		}
	}
	return nil
}

// OpenServo constructs the configured actuator driver.
func (c *Config) OpenServo() (servo.Servo, error) {
	switch c.Servo.Backend {
	case BackendPCA9685:
		return servo.NewPCA9685(c.Servo.I2CDevice, c.Servo.Port)
	case BackendGPIO:
		return servo.NewHardwarePWM(c.Servo.Pin)
	case BackendDummy:
		return servo.NewDummy(), nil
	default:
		return nil, fmt.Errorf("config: unknown servo backend %q", c.Servo.Backend)
	}
}

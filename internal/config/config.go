package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScenesDir = "scenes"
	DefaultDataDir   = ".palcycle"
	DefaultFPS       = 30
	DefaultSpeed     = 280
	DefaultTimeScale = 1.0
	DefaultScale     = 1
	DefaultTheme     = "cyberpunk"
)

type Config struct {
	Scene         string        `yaml:"scene"`
	ScenesDir     string        `yaml:"scenes_dir"`
	DataDir       string        `yaml:"data_dir"`
	FPS           int           `yaml:"fps"`
	SpeedConstant int           `yaml:"speed_constant"`
	TimeScale     float64       `yaml:"time_scale"`
	Scale         int           `yaml:"scale"`
	Theme         string        `yaml:"theme"`
	Logging       LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		ScenesDir:     DefaultScenesDir,
		DataDir:       DefaultDataDir,
		FPS:           DefaultFPS,
		SpeedConstant: DefaultSpeed,
		TimeScale:     DefaultTimeScale,
		Scale:         DefaultScale,
		Theme:         DefaultTheme,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the player and engine cannot run with.
func (c *Config) Validate() error {
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("fps must be in 1..240, got %d", c.FPS)
	}
	if c.SpeedConstant <= 0 {
		return fmt.Errorf("speed_constant must be positive, got %d", c.SpeedConstant)
	}
	if c.TimeScale <= 0 {
		return fmt.Errorf("time_scale must be positive, got %f", c.TimeScale)
	}
	if c.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	}
	return nil
}

// ApplyPreset copies the player settings of a named preset onto c.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, ListPresets())
	}
	c.FPS = p.FPS
	c.TimeScale = p.TimeScale
	return nil
}

// Package config loads the YAML configuration shared by every mode.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TFMV/graphsurface/physics"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the top-level configuration file.
type Config struct {
	Physics Physics `yaml:"physics"`
	Window  Window  `yaml:"window"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
}

// Physics holds the force law and integration constants.
type Physics struct {
	Strength        float64 `yaml:"strength" validate:"gt=0"`
	Radius          float64 `yaml:"radius" validate:"gt=0"`
	Falloff         string  `yaml:"falloff" validate:"oneof=linear quadratic"`
	Seed            int64   `yaml:"seed"`
	Step            float64 `yaml:"step" validate:"gt=0"`
	Damping         float64 `yaml:"damping" validate:"gt=0,lte=1"`
	MaxDisplacement float64 `yaml:"max_displacement" validate:"gte=0"`
	Epsilon         float64 `yaml:"epsilon" validate:"gt=0"`
	SettleTicks     int     `yaml:"settle_ticks" validate:"gte=0"`
}

// Window configures the interactive surface.
type Window struct {
	Title    string  `yaml:"title" validate:"required"`
	Width    int     `yaml:"width" validate:"gte=100,lte=8192"`
	Height   int     `yaml:"height" validate:"gte=100,lte=8192"`
	FgRadius float64 `yaml:"fg_radius" validate:"gt=0"`
	BgRadius float64 `yaml:"bg_radius" validate:"gtefield=FgRadius"`
	TPS      int     `yaml:"tps" validate:"gte=1,lte=240"`
	ShowFPS  bool    `yaml:"show_fps"`
}

// Server configures the HTTP mode.
type Server struct {
	Addr         string        `yaml:"addr" validate:"required"`
	TickInterval time.Duration `yaml:"tick_interval" validate:"gte=1ms"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// Log configures logging output.
type Log struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"oneof=text json"`
	File    string `yaml:"file"`
	MaxSize int    `yaml:"max_size" validate:"gte=0"` // megabytes
	MaxAge  int    `yaml:"max_age" validate:"gte=0"`  // days
}

// Default returns the built-in configuration.
func Default() *Config {
	s := physics.DefaultSettings()
	return &Config{
		Physics: Physics{
			Strength:        s.Strength,
			Radius:          s.Radius,
			Falloff:         s.Falloff,
			Seed:            s.Seed,
			Step:            s.Step,
			Damping:         s.Damping,
			MaxDisplacement: s.MaxDisplacement,
			Epsilon:         s.Epsilon,
			SettleTicks:     1000,
		},
		Window: Window{
			Title:    "graphsurface",
			Width:    1280,
			Height:   720,
			FgRadius: 40,
			BgRadius: 50,
			TPS:      60,
		},
		Server: Server{
			Addr:         ":8080",
			TickInterval: 16 * time.Millisecond,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: Log{
			Level:   "info",
			Format:  "text",
			MaxSize: 100,
			MaxAge:  28,
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Decode(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML data onto cfg and validates the result.
func (c *Config) Decode(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return c.Validate()
}

// Validate checks field constraints and that the integration is stable: a
// lone pair must not be pushed past each other in one tick.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	p := c.Physics
	if 2*p.Damping*p.Step*p.Strength > p.Radius {
		return fmt.Errorf("physics: 2*damping*step*strength (%g) exceeds radius (%g); layout would oscillate",
			2*p.Damping*p.Step*p.Strength, p.Radius)
	}
	return nil
}

// Settings converts the physics section for the simulation.
func (p Physics) Settings() physics.Settings {
	return physics.Settings{
		Strength:        p.Strength,
		Radius:          p.Radius,
		Falloff:         p.Falloff,
		Seed:            p.Seed,
		Step:            p.Step,
		Damping:         p.Damping,
		MaxDisplacement: p.MaxDisplacement,
		Epsilon:         p.Epsilon,
	}
}

// formatValidationError converts validator errors to readable messages
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		if e.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s: failed %s=%s (got %v)", field, e.Tag(), e.Param(), e.Value()))
		} else {
			messages = append(messages, fmt.Sprintf("%s: failed %s (got %v)", field, e.Tag(), e.Value()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

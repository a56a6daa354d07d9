// Package config loads the device configuration from a YAML file.
//
// A missing file means defaults; fields absent from the file keep their
// defaults. The INKDRAW_LOG_* environment variables override the logging
// section at runtime.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the config_version this build understands.
const CurrentVersion = 1

// DisplayConfig describes the e-paper panel and how it is wired.
type DisplayConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	SPI     string `yaml:"spi"` // periph SPI port name, "" for the first one
	SPIHz   int64  `yaml:"spi_hz"`
	DC      string `yaml:"dc"`
	RST     string `yaml:"rst"`
	Busy    string `yaml:"busy"`
	Rotated bool   `yaml:"rotated"`
}

// ButtonsConfig names the GPIO pins of the buttons and the LED.
type ButtonsConfig struct {
	Up   string `yaml:"up"`
	Down string `yaml:"down"`
	A    string `yaml:"a"`
	B    string `yaml:"b"`
	C    string `yaml:"c"`
	LED  string `yaml:"led"` // "" when the board has none
}

// CanvasConfig tunes the drawing session.
type CanvasConfig struct {
	Step           int           `yaml:"step"`
	DefaultBrush   int           `yaml:"default_brush"`
	BannerDuration time.Duration `yaml:"banner_duration"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// StorageConfig places state and images on disk. Relative paths are
// resolved against Root.
type StorageConfig struct {
	Root            string `yaml:"root"`
	ImagesDir       string `yaml:"images_dir"`
	BadgesDir       string `yaml:"badges_dir"`
	StateFile       string `yaml:"state_file"`
	ViewerStateFile string `yaml:"viewer_state_file"`
}

// LoggingConfig mirrors the logger options.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Config is the whole configuration file.
type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Display       DisplayConfig `yaml:"display"`
	Buttons       ButtonsConfig `yaml:"buttons"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the configuration of a Badger 2040 style badge: a
// 296x128 UC8151 panel and five buttons.
func Defaults() Config {
	return Config{
		ConfigVersion: CurrentVersion,
		Display: DisplayConfig{
			Width:  296,
			Height: 128,
			SPIHz:  12_000_000,
			DC:     "GPIO20",
			RST:    "GPIO21",
			Busy:   "GPIO26",
		},
		Buttons: ButtonsConfig{
			Up:   "GPIO15",
			Down: "GPIO11",
			A:    "GPIO12",
			B:    "GPIO13",
			C:    "GPIO14",
			LED:  "GPIO25",
		},
		Canvas: CanvasConfig{
			Step:           3,
			DefaultBrush:   2,
			BannerDuration: time.Second,
			PollInterval:   50 * time.Millisecond,
		},
		Storage: StorageConfig{
			Root:            "/data",
			ImagesDir:       "images",
			BadgesDir:       "badges",
			StateFile:       "state/draw.json",
			ViewerStateFile: "state/image.json",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvLogLevel  = "INKDRAW_LOG_LEVEL"
	EnvLogFormat = "INKDRAW_LOG_FORMAT"
	EnvLogSource = "INKDRAW_LOG_SOURCE"
	EnvLogFile   = "INKDRAW_LOG_FILE"
)

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: %w", err)
		default:
			if err := decode(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decode unmarshals YAML on top of cfg, rejecting unknown keys.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// Validate reports the first setting the binaries cannot run with.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.ConfigVersion >= 1 && c.ConfigVersion <= CurrentVersion,
		"config_version %d not supported (want 1..%d)", c.ConfigVersion, CurrentVersion)
	check(c.Display.Width > 0 && c.Display.Height > 0,
		"display size %dx%d must be positive", c.Display.Width, c.Display.Height)
	check(c.Display.SPIHz > 0, "display.spi_hz must be positive")
	check(c.Display.DC != "" && c.Display.Busy != "", "display.dc and display.busy are required")
	for name, pin := range map[string]string{
		"up": c.Buttons.Up, "down": c.Buttons.Down, "a": c.Buttons.A, "b": c.Buttons.B, "c": c.Buttons.C,
	} {
		check(pin != "", "buttons.%s is required", name)
	}
	check(c.Canvas.Step > 0, "canvas.step must be positive")
	check(c.Canvas.DefaultBrush >= 1 && c.Canvas.DefaultBrush <= 5,
		"canvas.default_brush %d out of range 1..5", c.Canvas.DefaultBrush)
	check(c.Canvas.BannerDuration >= 0, "canvas.banner_duration must not be negative")
	check(c.Canvas.PollInterval > 0, "canvas.poll_interval must be positive")
	check(c.Storage.Root != "", "storage.root is required")
	check(c.Logging.Format == "" || c.Logging.Format == "console" || c.Logging.Format == "json",
		"logging.format %q must be console or json", c.Logging.Format)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

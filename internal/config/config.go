// Package config loads rpsvision settings from an HCL file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/rpsvision/internal/inference"
)

// Config is the complete application configuration
type Config struct {
	Camera     CameraSettings
	Classifier ClassifierSettings
	Inference  InferenceSettings
	Match      MatchSettings
	UI         UISettings
}

// CameraSettings describes the frames the camera delivers
type CameraSettings struct {
	Width  int `hcl:"width,optional"`
	Height int `hcl:"height,optional"`
	FPS    int `hcl:"fps,optional"`
}

// ClassifierSettings locates the gesture model. An empty URL selects the
// keyboard-driven stand-in.
type ClassifierSettings struct {
	URL       string `hcl:"url,optional"`
	TimeoutMs int    `hcl:"timeout_ms,optional"`
}

// InferenceSettings tunes the classification loop
type InferenceSettings struct {
	IntervalMs    int `hcl:"interval_ms,optional"`
	BaseBackoffMs int `hcl:"base_backoff_ms,optional"`
	MaxBackoffMs  int `hcl:"max_backoff_ms,optional"`
	DegradedAfter int `hcl:"degraded_after,optional"`
}

// MatchSettings configures the computer opponent
type MatchSettings struct {
	// Seed for the computer's moves; 0 picks a random seed
	Seed int64 `hcl:"seed,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// fileConfig mirrors Config with every block optional
type fileConfig struct {
	Camera     *CameraSettings     `hcl:"camera,block"`
	Classifier *ClassifierSettings `hcl:"classifier,block"`
	Inference  *InferenceSettings  `hcl:"inference,block"`
	Match      *MatchSettings      `hcl:"match,block"`
	UI         *UISettings         `hcl:"ui,block"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Camera: CameraSettings{
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Classifier: ClassifierSettings{
			TimeoutMs: 0,
		},
		Inference: InferenceSettings{
			IntervalMs:    16,
			BaseBackoffMs: 50,
			MaxBackoffMs:  2000,
			DegradedAfter: 5,
		},
		UI: UISettings{
			LogLevel: "info",
			LogFile:  "rpsvision.log",
		},
	}
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills unset values from the defaults
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Default()
	if c := fc.Camera; c != nil {
		setInt(&config.Camera.Width, c.Width)
		setInt(&config.Camera.Height, c.Height)
		setInt(&config.Camera.FPS, c.FPS)
	}
	if c := fc.Classifier; c != nil {
		if c.URL != "" {
			config.Classifier.URL = c.URL
		}
		setInt(&config.Classifier.TimeoutMs, c.TimeoutMs)
	}
	if c := fc.Inference; c != nil {
		setInt(&config.Inference.IntervalMs, c.IntervalMs)
		setInt(&config.Inference.BaseBackoffMs, c.BaseBackoffMs)
		setInt(&config.Inference.MaxBackoffMs, c.MaxBackoffMs)
		setInt(&config.Inference.DegradedAfter, c.DegradedAfter)
	}
	if c := fc.Match; c != nil {
		config.Match.Seed = c.Seed
	}
	if c := fc.UI; c != nil {
		if c.LogLevel != "" {
			config.UI.LogLevel = c.LogLevel
		}
		if c.LogFile != "" {
			config.UI.LogFile = c.LogFile
		}
	}

	return config, nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 240 {
		return fmt.Errorf("camera fps must be between 1 and 240, got %d", c.Camera.FPS)
	}

	if c.Classifier.URL != "" {
		u, err := url.Parse(c.Classifier.URL)
		if err != nil {
			return fmt.Errorf("invalid classifier url: %w", err)
		}
		switch u.Scheme {
		case "ws", "wss", "http", "https":
		default:
			return fmt.Errorf("classifier url must use ws, wss, http or https, got %q", u.Scheme)
		}
	}
	if c.Classifier.TimeoutMs < 0 {
		return fmt.Errorf("classifier timeout cannot be negative")
	}

	if c.Inference.IntervalMs <= 0 {
		return fmt.Errorf("inference interval must be positive")
	}
	if c.Inference.BaseBackoffMs < 0 || c.Inference.MaxBackoffMs < 0 {
		return fmt.Errorf("inference backoff cannot be negative")
	}
	if c.Inference.MaxBackoffMs < c.Inference.BaseBackoffMs {
		return fmt.Errorf("max backoff %dms is below base backoff %dms", c.Inference.MaxBackoffMs, c.Inference.BaseBackoffMs)
	}
	if c.Inference.DegradedAfter <= 0 {
		return fmt.Errorf("degraded_after must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}

// InferenceConfig converts the settings into a loop config
func (c *Config) InferenceConfig() inference.Config {
	return inference.Config{
		Interval:      time.Duration(c.Inference.IntervalMs) * time.Millisecond,
		BaseBackoff:   time.Duration(c.Inference.BaseBackoffMs) * time.Millisecond,
		MaxBackoff:    time.Duration(c.Inference.MaxBackoffMs) * time.Millisecond,
		DegradedAfter: c.Inference.DegradedAfter,
		Timeout:       time.Duration(c.Classifier.TimeoutMs) * time.Millisecond,
	}
}

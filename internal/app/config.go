package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"autoscripter/internal/settings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "AUTOSCRIPTER_"

// Config controls runtime behavior for the TUI and the web host.
type Config struct {
	LogPath      string `yaml:"log_path"`
	Debug        bool   `yaml:"debug"`
	SeedPath     string `yaml:"seed_path"`
	JournalPath  string `yaml:"journal_path"`
	DemoScenario string `yaml:"demo_scenario"`
	DevHTTP      string `yaml:"dev_http"`
	ASCIIOnly    bool   `yaml:"ascii_only"`
	MotionLevel  string `yaml:"motion_level"`

	ListenAddr         string `yaml:"listen_addr"`
	SessionIdleMinutes int    `yaml:"session_idle_minutes"`
	ReapSchedule       string `yaml:"reap_schedule"`

	Assistant AssistantConfig   `yaml:"assistant"`
	Terminal  TerminalConfig    `yaml:"terminal"`
	Settings  settings.Settings `yaml:"settings"`
}

type AssistantConfig struct {
	MinDelayMS int `yaml:"min_delay_ms"`
	MaxDelayMS int `yaml:"max_delay_ms"`
}

type TerminalConfig struct {
	OutputDelayMS int `yaml:"output_delay_ms"`
}

func DefaultConfig() Config {
	return Config{
		MotionLevel:        "full",
		ListenAddr:         "127.0.0.1:8080",
		SessionIdleMinutes: 30,
		ReapSchedule:       "@every 1m",
		Assistant: AssistantConfig{
			MinDelayMS: 1000,
			MaxDelayMS: 2000,
		},
		Terminal: TerminalConfig{
			OutputDelayMS: 100,
		},
		Settings: settings.Defaults(),
	}
}

// LoadFile overlays a YAML file onto c. Keys missing from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays AUTOSCRIPTER_* variables resolved through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("LOG_PATH", &c.LogPath)
	boolean("DEBUG", &c.Debug)
	str("SEED_PATH", &c.SeedPath)
	str("JOURNAL_PATH", &c.JournalPath)
	str("DEMO", &c.DemoScenario)
	str("DEV_HTTP", &c.DevHTTP)
	boolean("ASCII", &c.ASCIIOnly)
	str("MOTION", &c.MotionLevel)
	str("LISTEN_ADDR", &c.ListenAddr)
	integer("SESSION_IDLE_MINUTES", &c.SessionIdleMinutes)
	str("REAP_SCHEDULE", &c.ReapSchedule)
	integer("ASSISTANT_MIN_DELAY_MS", &c.Assistant.MinDelayMS)
	integer("ASSISTANT_MAX_DELAY_MS", &c.Assistant.MaxDelayMS)
	integer("TERMINAL_OUTPUT_DELAY_MS", &c.Terminal.OutputDelayMS)
	if v, ok := lookup(envPrefix + "THEME"); ok {
		c.Settings.Theme = settings.Theme(strings.TrimSpace(v))
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	switch c.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid motion level %q", c.MotionLevel)
	}
	if c.MotionLevel == "" {
		c.MotionLevel = "full"
	}

	if c.Settings.Theme == "" {
		c.Settings.Theme = settings.ThemeDark
	}
	theme, err := settings.ParseTheme(string(c.Settings.Theme))
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	c.Settings.Theme = theme

	if c.Assistant.MinDelayMS < 0 || c.Assistant.MaxDelayMS < 0 {
		return errors.New("assistant delays must not be negative")
	}
	if c.Assistant.MinDelayMS == 0 && c.Assistant.MaxDelayMS == 0 {
		c.Assistant.MinDelayMS, c.Assistant.MaxDelayMS = 1000, 2000
	}
	if c.Assistant.MaxDelayMS < c.Assistant.MinDelayMS {
		return fmt.Errorf("assistant max delay %dms is below min delay %dms", c.Assistant.MaxDelayMS, c.Assistant.MinDelayMS)
	}
	if c.Terminal.OutputDelayMS < 0 {
		return errors.New("terminal output delay must not be negative")
	}
	if c.Terminal.OutputDelayMS == 0 {
		c.Terminal.OutputDelayMS = 100
	}

	if c.SessionIdleMinutes <= 0 {
		c.SessionIdleMinutes = 30
	}
	if strings.TrimSpace(c.ReapSchedule) == "" {
		c.ReapSchedule = "@every 1m"
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = "127.0.0.1:8080"
	}
	return nil
}

func (c Config) responseDelay() (time.Duration, time.Duration) {
	return time.Duration(c.Assistant.MinDelayMS) * time.Millisecond, time.Duration(c.Assistant.MaxDelayMS) * time.Millisecond
}

func (c Config) outputDelay() time.Duration {
	return time.Duration(c.Terminal.OutputDelayMS) * time.Millisecond
}

func (c Config) idleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/commutescore/pkg/commute"
	"github.com/elonfeng/commutescore/pkg/provider"
	"github.com/elonfeng/commutescore/pkg/scoring"
)

// Placeholder keys shipped in the sample config. A key equal to one of these
// counts as missing and puts that provider in simulated mode.
const (
	PlaceholderGoogleMapsKey  = "YOUR_GOOGLE_MAPS_API_KEY_HERE"
	PlaceholderOpenWeatherKey = "YOUR_OPENWEATHER_API_KEY_HERE"
	PlaceholderMapboxKey      = "YOUR_MAPBOX_API_KEY_HERE"
)

// Config is the root configuration.
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Weights   WeightsConfig   `yaml:"weights"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Log       LogConfig       `yaml:"log"`
}

// ProvidersConfig holds credentials and endpoints for the upstream APIs.
type ProvidersConfig struct {
	GoogleMaps  GoogleMapsConfig  `yaml:"google_maps"`
	OpenWeather OpenWeatherConfig `yaml:"openweather"`
	Mapbox      MapboxConfig      `yaml:"mapbox"`
	Timeout     string            `yaml:"timeout"`
	Seed        uint64            `yaml:"seed"` // 0 seeds from the clock
}

// ParseTimeout returns the per-request timeout as time.Duration.
func (p ProvidersConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

type GoogleMapsConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
}

type OpenWeatherConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Units    string `yaml:"units"` // "imperial" or "metric"
	Language string `yaml:"language"`
}

type MapboxConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// WeightsConfig overrides the scoring weights. An empty map keeps the defaults.
type WeightsConfig struct {
	Traffic map[string]float64 `yaml:"traffic"`
	Bike    map[string]float64 `yaml:"bike"`
}

// legacyTrafficLevel is the older name of the traffic-level weight.
const legacyTrafficLevel = "historicalData"

// TrafficWeights returns the effective traffic weighting.
func (w WeightsConfig) TrafficWeights() scoring.Weights {
	if len(w.Traffic) == 0 {
		return scoring.DefaultTrafficWeights()
	}
	out := make(scoring.Weights, len(w.Traffic))
	for k, v := range w.Traffic {
		if k == legacyTrafficLevel {
			k = string(scoring.FactorTrafficLevel)
		}
		out[scoring.Factor(k)] = v
	}
	return out
}

// BikeWeights returns the effective bike weighting.
func (w WeightsConfig) BikeWeights() scoring.Weights {
	if len(w.Bike) == 0 {
		return scoring.DefaultBikeWeights()
	}
	out := make(scoring.Weights, len(w.Bike))
	for k, v := range w.Bike {
		out[scoring.Factor(k)] = v
	}
	return out
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ParseShutdownTimeout returns how long in-flight requests get on shutdown.
func (s ServerConfig) ParseShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// WatchConfig configures the periodic commute watch.
type WatchConfig struct {
	Origin        string  `yaml:"origin"`
	Destination   string  `yaml:"destination"`
	Interval      string  `yaml:"interval"`
	BikeThreshold float64 `yaml:"bike_threshold"`
}

// ParseInterval returns the watch interval as time.Duration.
func (w WatchConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(w.Interval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns a Config with sensible defaults. API keys start as
// placeholders, so an unconfigured install runs on simulated data.
func Default() *Config {
	return &Config{
		Providers: ProvidersConfig{
			GoogleMaps: GoogleMapsConfig{
				APIKey:   PlaceholderGoogleMapsKey,
				BaseURL:  provider.DefaultGoogleMapsBaseURL,
				Language: "en",
			},
			OpenWeather: OpenWeatherConfig{
				APIKey:   PlaceholderOpenWeatherKey,
				BaseURL:  provider.DefaultOpenWeatherBaseURL,
				Units:    provider.UnitsImperial,
				Language: "en",
			},
			Mapbox: MapboxConfig{
				APIKey:  PlaceholderMapboxKey,
				BaseURL: provider.DefaultMapboxBaseURL,
			},
			Timeout: "30s",
		},
		Server: ServerConfig{Port: 8080, ShutdownTimeout: "10s"},
		Watch: WatchConfig{
			Interval:      "15m",
			BikeThreshold: 7,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then variables from ./.env, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv exports the variables in file without overriding ones already set.
// A missing file is not an error.
func loadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.Providers.GoogleMaps.APIKey = v
	}
	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.Providers.OpenWeather.APIKey = v
	}
	if v := os.Getenv("MAPBOX_API_KEY"); v != "" {
		cfg.Providers.Mapbox.APIKey = v
	}
	if v := os.Getenv("COMMUTESCORE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse COMMUTESCORE_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("COMMUTESCORE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Providers.OpenWeather.Units {
	case provider.UnitsImperial, provider.UnitsMetric:
	default:
		return fmt.Errorf("providers.openweather.units: unsupported units %q", c.Providers.OpenWeather.Units)
	}

	if _, ok := c.Weights.Traffic[legacyTrafficLevel]; ok {
		if _, dup := c.Weights.Traffic[string(scoring.FactorTrafficLevel)]; dup {
			return fmt.Errorf("weights.traffic: both %s and %s set", legacyTrafficLevel, scoring.FactorTrafficLevel)
		}
	}
	if err := c.Weights.TrafficWeights().Check(scoring.TrafficFactors); err != nil {
		return fmt.Errorf("weights.traffic: %w", err)
	}
	if err := c.Weights.BikeWeights().Check(scoring.BikeFactors); err != nil {
		return fmt.Errorf("weights.bike: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if t := c.Watch.BikeThreshold; t < scoring.MinScore || t > scoring.MaxScore {
		return fmt.Errorf("watch.bike_threshold: %v outside [1,10]", t)
	}
	return nil
}

func isPlaceholder(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || (strings.HasPrefix(key, "YOUR_") && strings.HasSuffix(key, "_HERE"))
}

func (c *Config) HasGoogleMapsKey() bool  { return !isPlaceholder(c.Providers.GoogleMaps.APIKey) }
func (c *Config) HasOpenWeatherKey() bool { return !isPlaceholder(c.Providers.OpenWeather.APIKey) }
func (c *Config) HasMapboxKey() bool      { return !isPlaceholder(c.Providers.Mapbox.APIKey) }

// Keys summarizes which providers are live.
func (c *Config) Keys() commute.Keys {
	return commute.Keys{
		GoogleMaps:  c.HasGoogleMapsKey(),
		OpenWeather: c.HasOpenWeatherKey(),
		Mapbox:      c.HasMapboxKey(),
	}
}

// GoogleMapsKey returns the usable key, or "" when only a placeholder is set.
func (c *Config) GoogleMapsKey() string {
	if !c.HasGoogleMapsKey() {
		return ""
	}
	return strings.TrimSpace(c.Providers.GoogleMaps.APIKey)
}

// OpenWeatherKey returns the usable key, or "" when only a placeholder is set.
func (c *Config) OpenWeatherKey() string {
	if !c.HasOpenWeatherKey() {
		return ""
	}
	return strings.TrimSpace(c.Providers.OpenWeather.APIKey)
}

// MapboxKey returns the usable key, or "" when only a placeholder is set.
func (c *Config) MapboxKey() string {
	if !c.HasMapboxKey() {
		return ""
	}
	return strings.TrimSpace(c.Providers.Mapbox.APIKey)
}

// Package config loads and validates the controller configuration.
// Validation happens once, at startup: the photoperiod components
// downstream assume a Config that already passed Validate.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"supercycler"
	"supercycler/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Device transports.
const (
	TransportHTTP = "http"
	TransportMQTT = "mqtt"
)

const (
	layoutDate  = "2006-01-02"
	layoutClock = "15:04"
)

// Cycle holds the photoperiod parameters.
type Cycle struct {
	Mode               string        `mapstructure:"mode"`                  // MANUAL | AUTO
	InitialLightHours  float64       `mapstructure:"initial_light_hours"`   // 0-24
	MinLightHours      float64       `mapstructure:"min_light_hours"`       // 0-24, <= initial
	DecayMinutesPerDay int           `mapstructure:"decay_minutes_per_day"` // >= 0
	FloweringStartDate string        `mapstructure:"flowering_start_date"`  // YYYY-MM-DD
	LightOnTime        string        `mapstructure:"light_on_time"`         // HH:MM wall clock
	Tick               time.Duration `mapstructure:"tick"`
}

// Retry bounds for device commands.
type Retry struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// MQTT settings, used when Device.Transport is "mqtt".
type MQTT struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"` // Tasmota device topic, not the full command path
	ClientID string `mapstructure:"client_id"`
}

// Device describes the smart plug endpoint.
type Device struct {
	Transport string        `mapstructure:"transport"` // http | mqtt
	Address   string        `mapstructure:"address"`
	Port      int           `mapstructure:"port"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retry     Retry         `mapstructure:"retry"`
	MQTT      MQTT          `mapstructure:"mqtt"`
}

type DB struct {
	Path string `mapstructure:"path"`
}

type Auth struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// Config is one validated configuration snapshot.
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	DB       DB     `mapstructure:"db"`
	Cycle    Cycle  `mapstructure:"cycle"`
	Device   Device `mapstructure:"device"`
	Auth     Auth   `mapstructure:"auth"`

	// filled by Validate
	floweringStart   time.Time
	onHour, onMinute int
}

// Mode returns the normalized operating mode.
func (c Config) Mode() supercycler.Mode {
	if strings.EqualFold(c.Cycle.Mode, string(supercycler.ModeManual)) {
		return supercycler.ModeManual
	}
	return supercycler.ModeAuto
}

// FloweringStart returns the flowering start date at local midnight.
func (c Config) FloweringStart() time.Time { return c.floweringStart }

// LightOn returns the configured light-on wall-clock time.
func (c Config) LightOn() (hour, minute int) { return c.onHour, c.onMinute }

// Validate checks bounds and parses the date/clock fields.
// A Config that fails Validate must not be used; the process should stop.
func (c *Config) Validate() error {
	cy := c.Cycle
	switch strings.ToUpper(strings.TrimSpace(cy.Mode)) {
	case string(supercycler.ModeManual), string(supercycler.ModeAuto):
	default:
		return fmt.Errorf("cycle.mode %q: must be MANUAL or AUTO", cy.Mode)
	}
	if cy.InitialLightHours < 0 || cy.InitialLightHours > 24 {
		return fmt.Errorf("cycle.initial_light_hours %.2f: must be within [0, 24]", cy.InitialLightHours)
	}
	if cy.MinLightHours < 0 || cy.MinLightHours > 24 {
		return fmt.Errorf("cycle.min_light_hours %.2f: must be within [0, 24]", cy.MinLightHours)
	}
	if cy.MinLightHours > cy.InitialLightHours {
		return fmt.Errorf("cycle.min_light_hours %.2f exceeds initial_light_hours %.2f", cy.MinLightHours, cy.InitialLightHours)
	}
	if cy.DecayMinutesPerDay < 0 {
		return fmt.Errorf("cycle.decay_minutes_per_day %d: must be >= 0", cy.DecayMinutesPerDay)
	}
	if cy.Tick <= 0 {
		return fmt.Errorf("cycle.tick %s: must be > 0", cy.Tick)
	}

	start, err := time.ParseInLocation(layoutDate, cy.FloweringStartDate, time.Local)
	if err != nil {
		return fmt.Errorf("cycle.flowering_start_date %q: %w", cy.FloweringStartDate, err)
	}
	c.floweringStart = start

	on, err := time.Parse(layoutClock, cy.LightOnTime)
	if err != nil {
		return fmt.Errorf("cycle.light_on_time %q: %w", cy.LightOnTime, err)
	}
	c.onHour, c.onMinute = on.Hour(), on.Minute()

	switch c.Device.Transport {
	case TransportHTTP:
		if c.Device.Address == "" {
			return fmt.Errorf("device.address is required for http transport")
		}
	case TransportMQTT:
		if c.Device.MQTT.Broker == "" || c.Device.MQTT.Topic == "" {
			return fmt.Errorf("device.mqtt.broker and device.mqtt.topic are required for mqtt transport")
		}
	default:
		return fmt.Errorf("device.transport %q: must be http or mqtt", c.Device.Transport)
	}
	if c.Device.Timeout <= 0 {
		return fmt.Errorf("device.timeout %s: must be > 0", c.Device.Timeout)
	}
	if c.Device.Retry.MaxAttempts < 1 {
		return fmt.Errorf("device.retry.max_attempts %d: must be >= 1", c.Device.Retry.MaxAttempts)
	}
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	return nil
}

// Store hands out configuration snapshots and swaps them when the
// config file changes on disk. Photoperiod parameter changes (for
// example MANUAL to AUTO) take effect on the controller's next pass
// without a restart; address/port/db changes still need one.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStatic wraps a fixed, already-validated configuration. Used in
// tests and anywhere the file watcher is not wanted.
func NewStatic(cfg Config) *Store { return &Store{cfg: cfg} }

// Snapshot returns the current configuration by value.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Store) swap(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("db.path", "supercycler.db")
	v.SetDefault("cycle.mode", string(supercycler.ModeAuto))
	v.SetDefault("cycle.light_on_time", "06:00")
	v.SetDefault("cycle.tick", time.Minute)
	v.SetDefault("device.transport", TransportHTTP)
	v.SetDefault("device.port", 5000)
	v.SetDefault("device.timeout", 5*time.Second)
	v.SetDefault("device.retry.max_attempts", 3)
	v.SetDefault("device.retry.initial_backoff", 500*time.Millisecond)
	v.SetDefault("device.retry.max_backoff", 5*time.Second)
	v.SetDefault("auth.token_ttl", time.Hour)
}

func read(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads configs/config.yml under dir, validates it and starts
// watching the file. An invalid edit at runtime is logged and ignored;
// the previous snapshot stays active.
func Load(dir string, log *logger.Logger) (*Store, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}

	store := &Store{cfg: cfg}
	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := read(v)
		if err != nil {
			log.Warnw("config reload rejected", "file", e.Name, "err", err)
			return
		}
		store.swap(next)
		log.Infow("config reloaded", "file", e.Name, "mode", next.Mode())
	})
	v.WatchConfig()

	return store, nil
}

// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the urlbridge service configuration (urlbridge.toml).
type Config struct {
	ExternalHost string    `toml:"external_host"`
	Capacity     int       `toml:"capacity"`
	TimeoutMS    int       `toml:"timeout_ms"`
	HTTP         Listener  `toml:"http"`
	HTTPS        Listener  `toml:"https"`
	Poll         Poll      `toml:"poll"`
	RateLimit    RateLimit `toml:"rate_limit"`
	Control      Control   `toml:"control"`
}

type Listener struct {
	Listen string `toml:"listen"`
	Port   int    `toml:"port"` // rendered into addresses
	Cert   string `toml:"cert"`
	Key    string `toml:"key"`
}

type Poll struct {
	IntervalMS int `toml:"interval_ms"`
}

type RateLimit struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

// Control configures the engine-facing API. Roles lists the token roles
// allowed to call it; empty means any authenticated caller.
type Control struct {
	Enabled         bool     `toml:"enabled"`
	Listen          string   `toml:"listen"`
	JWTSecret       string   `toml:"jwt_secret"`
	Issuer          string   `toml:"issuer"`
	Audience        string   `toml:"audience"`
	Roles           []string `toml:"roles"`
	EventQueueDepth int      `toml:"event_queue_depth"`
}

// Default is what an empty or missing file yields.
func Default() Config {
	return Config{
		ExternalHost: "localhost",
		Capacity:     15000,
		TimeoutMS:    25000,
		HTTP:         Listener{Listen: ":9000", Port: 9000},
		HTTPS:        Listener{Listen: ":9001"},
		Poll:         Poll{IntervalMS: 50},
		Control: Control{
			Enabled:         true,
			Listen:          "127.0.0.1:9100",
			EventQueueDepth: 256,
		},
	}
}

// Env keys consulted by Load.
const (
	EnvPath         = "URLBRIDGE_CONFIG"
	EnvExternalHost = "URLBRIDGE_EXTERNAL_HOST"
	EnvCapacity     = "URLBRIDGE_CAPACITY"
	EnvTimeoutMS    = "URLBRIDGE_TIMEOUT_MS"
	EnvTLSCert      = "SSL_SERVER_CERTIFICATE"
	EnvTLSKey       = "SSL_SERVER_KEY"
	EnvControlKey   = "URLBRIDGE_CONTROL_SECRET"
	DefaultPath     = "urlbridge.toml"
)

// Load reads path over the defaults, applies env overrides and validates.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv is Load on $URLBRIDGE_CONFIG, falling back to urlbridge.toml.
func LoadFromEnv() (Config, error) {
	return Load(envOr(EnvPath, DefaultPath))
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvExternalHost)); v != "" {
		c.ExternalHost = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCapacity)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCapacity, err)
		}
		c.Capacity = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeoutMS, err)
		}
		c.TimeoutMS = n
	}
	if v := os.Getenv(EnvTLSCert); v != "" {
		c.HTTPS.Cert = v
	}
	if v := os.Getenv(EnvTLSKey); v != "" {
		c.HTTPS.Key = v
	}
	if v := os.Getenv(EnvControlKey); v != "" {
		c.Control.JWTSecret = v
	}
	return nil
}

// Validate rejects settings the bridge cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ExternalHost) == "" {
		return errors.New("external_host is required")
	}
	if c.Capacity < 0 {
		return errors.New("capacity must be >= 0")
	}
	if c.TimeoutMS <= 0 {
		return errors.New("timeout_ms must be > 0")
	}
	if c.Poll.IntervalMS < 0 {
		return errors.New("poll.interval_ms must be >= 0")
	}
	if c.HTTP.Port == 0 {
		return errors.New("http.port must be > 0: it is rendered into every address")
	}
	if err := validPort("http.port", c.HTTP.Port); err != nil {
		return err
	}
	if err := validPort("https.port", c.HTTPS.Port); err != nil {
		return err
	}
	if c.HTTPS.Port != 0 && (c.HTTPS.Cert == "") != (c.HTTPS.Key == "") {
		return errors.New("https.cert and https.key must be set together")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must be >= 0")
	}
	if c.Control.Enabled && c.Control.Listen == "" {
		return errors.New("control.listen required when control is enabled")
	}
	if c.Control.EventQueueDepth < 0 {
		return errors.New("control.event_queue_depth must be >= 0")
	}
	return nil
}

func validPort(name string, p int) error {
	if p < 0 || p > 65535 {
		return fmt.Errorf("%s %d out of range", name, p)
	}
	return nil
}

// Timeout is the Poll Bridge window.
func (c Config) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// PollInterval is the transport's probe cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// SecureEnabled reports whether an HTTPS transport should be started:
// a port to advertise and both halves of the key pair on disk.
func (c Config) SecureEnabled() bool {
	return c.HTTPS.Port != 0 && fileExists(c.HTTPS.Cert) && fileExists(c.HTTPS.Key)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

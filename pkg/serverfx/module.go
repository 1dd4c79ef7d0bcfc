package serverfx

import (
	"github.com/joeydtaylor/steeze-urlbridge/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/config"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/engine"
	"go.uber.org/fx"
)

// ---------- Options ----------

type Config struct {
	Service       string // for logs only
	ConfigEnv     string // e.g. URLBRIDGE_CONFIG
	DefaultConfig string // e.g. "urlbridge.toml"
}

type Option func(*Config)

func WithService(s string) Option          { return func(c *Config) { c.Service = s } }
func WithConfigEnv(k string) Option        { return func(c *Config) { c.ConfigEnv = k } }
func WithDefaultConfig(path string) Option { return func(c *Config) { c.DefaultConfig = path } }

func defaultConfig() Config {
	return Config{
		Service:       "urlbridge",
		ConfigEnv:     config.EnvPath,
		DefaultConfig: config.DefaultPath,
	}
}

// Module returns the complete urlbridge service: config, middleware, both
// transports, the bridge, the control API and the listeners.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(provideConfig),
		// Middleware + system logger + bridge observer
		bundlefx.Module,
		// Script engine adapters
		fx.Provide(engine.NewHub),
		fx.Provide(provideQueue),
		// Bridge and its transports
		fx.Provide(provideTransports),
		fx.Provide(provideBridge),
		fx.Provide(provideControl),
		fx.Provide(provideServers),
		// Lifecycle
		fx.Invoke(registerHooks),
	)
}

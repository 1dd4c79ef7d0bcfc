package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/config"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/control"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/engine"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/transport/httpx"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Providers ----------

func provideConfig(o Config) (config.Config, error) {
	return config.Load(envOr(o.ConfigEnv, o.DefaultConfig))
}

func provideQueue(cfg config.Config, log *zap.Logger) *engine.Queue {
	return engine.NewQueue(cfg.Control.EventQueueDepth, log.Named("events"))
}

// Transports holds the plain transport and, when a key pair is configured,
// the secure one.
type Transports struct {
	Plain  *httpx.PollServer
	Secure *httpx.PollServer
}

func provideTransports(cfg config.Config, log *zap.Logger) Transports {
	opts := []httpx.PollOption{
		httpx.WithPollInterval(cfg.PollInterval()),
		httpx.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		httpx.WithLogger(log.Named("transport")),
	}
	t := Transports{Plain: httpx.NewPollServer(cfg.HTTP.Port, opts...)}
	if cfg.SecureEnabled() {
		t.Secure = httpx.NewPollServer(cfg.HTTPS.Port, opts...)
	}
	return t
}

type bridgeDeps struct {
	fx.In
	Cfg        config.Config
	Transports Transports
	Logger     *zap.Logger
	Observer   *metrics.BridgeObserver
	Hub        *engine.Hub
	Queue      *engine.Queue
}

func provideBridge(d bridgeDeps) *urlbridge.Bridge {
	opts := []urlbridge.Option{
		urlbridge.WithExternalHost(d.Cfg.ExternalHost),
		urlbridge.WithCapacity(d.Cfg.Capacity),
		urlbridge.WithTimeout(d.Cfg.Timeout()),
		urlbridge.WithLogger(d.Logger.Named("bridge")),
		urlbridge.WithObserver(d.Observer),
	}
	if d.Transports.Secure != nil {
		opts = append(opts, urlbridge.WithSecureTransport(d.Transports.Secure))
	}
	b := urlbridge.New(d.Transports.Plain, opts...)
	b.Attach(d.Hub)
	d.Queue.Attach(d.Hub)
	return b
}

func provideControl(cfg config.Config, b *urlbridge.Bridge, q *engine.Queue, h *engine.Hub, a *auth.Middleware, log *zap.Logger) *control.API {
	return control.New(b, q, h,
		control.WithAuth(a, cfg.Control.Roles...),
		control.WithLogger(log.Named("control")),
	)
}

// ---------- Servers ----------

// Servers owns every listener plus the request reaper.
type Servers struct {
	log    *zap.Logger
	bridge *urlbridge.Bridge
	reap   time.Duration
	cancel context.CancelFunc

	mu    sync.Mutex
	list  []*listener
	addrs map[string]string
}

type listener struct {
	name      string
	srv       *http.Server
	cert, key string
}

// Addr is the bound address of the named listener ("http", "https",
// "control") once the app has started.
func (s *Servers) Addr(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addrs[name]
}

type serverDeps struct {
	fx.In
	Opts       Config
	Cfg        config.Config
	Logger     *zap.Logger
	Auth       *auth.Middleware
	LogMW      *logger.Middleware
	Metrics    http.Handler `name:"metrics"`
	Transports Transports
	Bridge     *urlbridge.Bridge
	Control    *control.API
}

func provideServers(d serverDeps) *Servers {
	s := &Servers{
		log:    d.Logger.With(zap.String("service", d.Opts.Service)),
		bridge: d.Bridge,
		reap:   max(d.Cfg.Timeout()/2, time.Second),
		addrs:  make(map[string]string),
	}
	// The poll loop holds the response open for up to the bridge timeout.
	write := d.Cfg.Timeout() + 5*time.Second

	s.list = append(s.list, &listener{
		name: "http",
		srv:  newServer(d.Cfg.HTTP.Listen, publicRouter(d, urlbridge.SegmentHTTP, d.Transports.Plain), write),
	})
	if d.Transports.Secure != nil {
		srv := newServer(d.Cfg.HTTPS.Listen, publicRouter(d, urlbridge.SegmentHTTPS, d.Transports.Secure), write)
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		s.list = append(s.list, &listener{name: "https", srv: srv, cert: d.Cfg.HTTPS.Cert, key: d.Cfg.HTTPS.Key})
	}
	if d.Cfg.Control.Enabled {
		s.list = append(s.list, &listener{
			name: "control",
			srv:  newServer(d.Cfg.Control.Listen, controlRouter(d), 30*time.Second),
		})
	}
	return s
}

func publicRouter(d serverDeps, segment string, ps *httpx.PollServer) http.Handler {
	r := httpx.NewChi()
	r.Use(
		chimd.RequestID,
		chimd.Recoverer,
		chimd.Heartbeat("/ping"),
		d.LogMW.Middleware(nil),
		metrics.Collect(nil),
	)
	r.HandleAll("/"+segment+"/*", ps)
	return r.Mux()
}

func controlRouter(d serverDeps) http.Handler {
	r := httpx.NewChi()
	r.Use(
		chimd.RequestID,
		chimd.Recoverer,
		chimd.Heartbeat("/ping"),
		d.LogMW.Middleware(d.Auth),
		metrics.Collect(d.Auth),
	)
	r.Get("/metrics", d.Metrics)
	d.Control.Routes(r)
	return r.Mux()
}

func newServer(addr string, h http.Handler, write time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: write,
		IdleTimeout:  60 * time.Second,
	}
}

// ---------- Lifecycle ----------

func (s *Servers) start(context.Context) error {
	for _, l := range s.list {
		ln, err := net.Listen("tcp", l.srv.Addr)
		if err != nil {
			_ = s.shutdown(context.Background())
			return err
		}
		s.mu.Lock()
		s.addrs[l.name] = ln.Addr().String()
		s.mu.Unlock()

		s.log.Info("server starting",
			zap.String("listener", l.name),
			zap.String("addr", ln.Addr().String()),
			zap.Bool("tls", l.cert != ""),
		)
		go func(l *listener) {
			var err error
			if l.cert != "" {
				err = l.srv.ServeTLS(ln, l.cert, l.key)
			} else {
				err = l.srv.Serve(ln)
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("server failed", zap.String("listener", l.name), zap.Error(err))
			}
		}(l)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.reaper(ctx)
	return nil
}

// reaper drops requests whose client left before the poll loop timed out.
func (s *Servers) reaper(ctx context.Context) {
	t := time.NewTicker(s.reap)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.bridge.Reap(); n > 0 {
				s.log.Info("reaped expired requests", zap.Int("count", n))
			}
		}
	}
}

func (s *Servers) shutdown(ctx context.Context) error {
	var errs []error
	for _, l := range s.list {
		if err := l.srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Servers) stop(ctx context.Context) error {
	s.log.Info("server stopping")
	if s.cancel != nil {
		s.cancel()
	}
	err := s.shutdown(ctx)
	n := s.bridge.ReleaseAll()
	s.log.Info("bridge torn down", zap.Int("endpoints", n))
	return err
}

func registerHooks(lc fx.Lifecycle, s *Servers) {
	lc.Append(fx.Hook{OnStart: s.start, OnStop: s.stop})
}

// ---------- tiny helpers ----------

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// cmd/web/main.go
//
// Formdesk – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Install a console logger so config errors are visible.
//
//  2. Load config (defaults → conf/.env → conf/global.yaml → FORMDESK_ env),
//     resolving vault: references through a lazily dialled Vault client.
//
//  3. Start the daily rotating file logger (tees to console in a TTY or
//     when logging.tee is set).
//
//  4. Build the form registry: built-in schemas plus any YAML definitions.
//
//  5. Wire the form pipeline:
//
//     • DelayProcessor     – simulated side effect, then log dispatch
//     • metrics.Instrument – processing latency histogram
//     • form.Handler       – parse → process → confirmation
//     • view.Renderer      – HTML and JSON output
//     • form.Signer        – stateless CSRF tokens (optional)
//
//  6. Mount components on a chi router behind RequestID, RealIP, Logging,
//     Recoverer, Security headers, optional ForceHTTPS, and RequestInfo.
//
//  7. Serve /metrics and /healthz, then run until SIGINT or SIGTERM and
//     drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/formdesk/components/forms"
	"github.com/yanizio/formdesk/internal/component"
	"github.com/yanizio/formdesk/internal/config"
	"github.com/yanizio/formdesk/internal/form"
	"github.com/yanizio/formdesk/internal/logger"
	"github.com/yanizio/formdesk/internal/message"
	"github.com/yanizio/formdesk/internal/metrics"
	"github.com/yanizio/formdesk/internal/middleware"
	"github.com/yanizio/formdesk/internal/requestinfo"
	"github.com/yanizio/formdesk/internal/server"
	"github.com/yanizio/formdesk/internal/vault"
	"github.com/yanizio/formdesk/internal/view"
)

const shutdownGrace = 20 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("formdesk: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Boot logger ─────────────────────────────────────────────────
	//
	boot, err := zap.NewProduction()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(boot)

	//
	// ── 2.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx, vault.NewLazy(ctx, boot.Sugar()))
	if err != nil {
		return err
	}

	//
	// ── 3.  File logger ─────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.Tee || runningInTTY())
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	geo, err := requestinfo.OpenGeo(cfg.GeoIP.DBPath)
	if err != nil {
		logOut.Warnw("geoip disabled", "path", cfg.GeoIP.DBPath, "err", err)
	}
	if geo != nil {
		defer geo.Close()
	}

	//
	// ── 4.  Form registry ───────────────────────────────────────────────
	//
	extra, err := form.LoadDir(cfg.Forms.DefinitionsDir)
	if err != nil {
		return err
	}
	registry, err := form.NewRegistry(append(form.Builtin(), extra...)...)
	if err != nil {
		return err
	}
	for _, s := range registry.All() {
		logOut.Infow("form registered", "form", s.ID, "path", s.Path, "fields", len(s.Fields))
	}

	//
	// ── 5.  Form pipeline ───────────────────────────────────────────────
	//
	m := metrics.New(prometheus.DefaultRegisterer)
	proc := form.NewDelayProcessor(cfg.Forms.ProcessingDelay, message.NewLogDispatcher(logOut))
	handler := form.NewHandler(m.Instrument(proc), form.WithObserver(m.Observer()))

	renderer, err := view.New()
	if err != nil {
		return err
	}

	var signer *form.Signer
	if cfg.Forms.CSRF {
		key, err := form.DecodeKey(cfg.Security.CSRFKey)
		if err != nil {
			return err
		}
		if key == nil {
			logOut.Warnw("security.csrf_key unset, using an ephemeral key")
		}
		if signer, err = form.NewSigner(key, cfg.Forms.TokenMaxAge); err != nil {
			return err
		}
	}

	components := component.NewRegistry()
	if err := components.Register(forms.New(forms.Deps{
		Forms:        registry,
		Handler:      handler,
		Renderer:     renderer,
		Signer:       signer,
		Metrics:      m,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})); err != nil {
		return err
	}

	//
	// ── 6.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, middleware.Logging(logOut), chimw.Recoverer)
	r.Use(middleware.Security(cfg.HTTP.ForceHTTPS))
	if cfg.HTTP.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Group(func(r chi.Router) {
		r.Use(requestinfo.NewEnricher(geo).Middleware)
		components.MountAll(r)
	})

	//
	// ── 7.  Serve until signalled ───────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logOut.Infow("shutting down", "grace", shutdownGrace)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/draftmail/internal/clients"
	"github.com/pribylovaa/draftmail/internal/config"
	"github.com/pribylovaa/draftmail/internal/credentials"
	credfile "github.com/pribylovaa/draftmail/internal/credentials/file"
	credredis "github.com/pribylovaa/draftmail/internal/credentials/redis"
	"github.com/pribylovaa/draftmail/internal/guards"
	wchttp "github.com/pribylovaa/draftmail/internal/http"
	"github.com/pribylovaa/draftmail/internal/http/navigation"
	"github.com/pribylovaa/draftmail/internal/metrics"
	"github.com/pribylovaa/draftmail/internal/service"
	"github.com/pribylovaa/draftmail/internal/session"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting webclient", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	storeCtx, storeCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, closer, err := openStore(storeCtx, cfg.Store, log)
	storeCancel()
	if err != nil {
		log.Error("store_open_failed", slog.String("driver", cfg.Store.Driver), slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			log.Warn("store_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("store_opened", slog.String("driver", cfg.Store.Driver))

	mt := metrics.New(nil)

	sess := session.New(store,
		session.WithSingleFlight(cfg.Session.SingleFlight()),
		session.WithMetrics(mt),
		session.WithLogger(log),
	)

	cl, err := clients.New(cfg.Backend, log, sess,
		clients.WithNavigator(navigation.Navigator{}),
		clients.WithMetrics(mt),
	)
	if err != nil {
		log.Error("clients_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	sess.SetRefresher(cl)
	log.Info("clients_initialized",
		slog.String("backend", cfg.Backend.BaseURL),
		slog.String("refresh_mode", cfg.Session.RefreshMode),
	)

	svc := service.New(cl, sess, log)
	protected := guards.Sequence(guards.Authenticated(sess), guards.VerifiedEmail(cl))

	apiHandler := wchttp.NewRouter(svc, protected, wchttp.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: cfg.HTTP.BasePath,
	})

	// Служебный HTTP: readiness/liveness/metrics.
	var ready int32 // 0 - not ready; 1 - ready

	opsMux := http.NewServeMux()
	opsMux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	opsMux.Handle("/metrics", promhttp.Handler())

	opsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("ops_listen_start", slog.String("addr", opsSrv.Addr))
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops_serve_failed", slog.String("err", err.Error()))
		}
	}()

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("webclient_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("ops_shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// openStore выбирает бэкенд хранения сессии по store.driver.
// Возвращаемый io.Closer освобождает соединения бэкенда (для memory и file: no-op).
func openStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*credentials.Store, io.Closer, error) {
	const op = "main.openStore"

	opts := []credentials.Option{credentials.WithLogger(log)}

	switch cfg.Driver {
	case config.StoreMemory:
		return credentials.NewMemory(opts...), nopCloser{}, nil

	case config.StoreFile:
		st, err := credentials.Open(ctx, credfile.New(cfg.Path), opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nopCloser{}, nil

	case config.StoreRedis:
		b, err := credredis.NewFromURL(ctx, cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		st, err := credentials.Open(ctx, b, opts...)
		if err != nil {
			_ = b.Close()
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, b, nil

	default:
		return nil, nil, fmt.Errorf("%s: unknown store driver %q", op, cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

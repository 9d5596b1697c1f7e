package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hongminglow/videotube-be/internal/assets"
	"github.com/hongminglow/videotube-be/internal/assets/cloudinary"
	"github.com/hongminglow/videotube-be/internal/assets/local"
	"github.com/hongminglow/videotube-be/internal/config"
	"github.com/hongminglow/videotube-be/internal/http/handlers"
	"github.com/hongminglow/videotube-be/internal/logger"
	"github.com/hongminglow/videotube-be/internal/metrics"
	"github.com/hongminglow/videotube-be/internal/registration"
	"github.com/hongminglow/videotube-be/internal/server"
	"github.com/hongminglow/videotube-be/internal/storage"
	"github.com/hongminglow/videotube-be/internal/storage/memory"
	postgres "github.com/hongminglow/videotube-be/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg := logger.New(cfg.LogLevel)
	slog.SetDefault(logg)

	ctx := context.Background()
	userStore, db, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fatal(logg, "init store", err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	uploader, staticDir, err := openUploader(cfg)
	if err != nil {
		fatal(logg, "init asset store", err)
	}

	registrar, err := registration.New(userStore, m.InstrumentUploader(uploader))
	if err != nil {
		fatal(logg, "init registration", err)
	}

	srv := server.New(cfg, server.Deps{
		Registrar: registrar,
		DB:        db,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logg,
		StaticDir: staticDir,
	})

	go func() {
		logg.Info("videotube backend listening", "addr", cfg.HTTPAddress(), "store", cfg.StoreDriver, "cloudinary", cfg.Cloudinary.Enabled())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logg, "http server error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logg.Error("graceful shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.UserStore, handlers.Pinger, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return memory.New(cfg.BcryptCost), nil, func() {}, nil
	}
	store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL, cfg.BcryptCost)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, store, store.Close, nil
}

// openUploader prefers Cloudinary and falls back to serving files from disk.
func openUploader(cfg config.Config) (assets.Uploader, string, error) {
	if cfg.Cloudinary.Enabled() {
		u, err := cloudinary.New(cfg.Cloudinary)
		return u, "", err
	}
	u, err := local.New(cfg.Uploads.PublicDir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		return nil, "", err
	}
	return u, u.Dir(), nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}

func fatal(logg *slog.Logger, msg string, err error) {
	logg.Error(msg, "error", err)
	os.Exit(1)
}

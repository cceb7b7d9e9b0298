package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/HaidarGhanem/management-crud/internal/config"
	"github.com/HaidarGhanem/management-crud/internal/inventory"
	"github.com/HaidarGhanem/management-crud/internal/ledger"
	"github.com/HaidarGhanem/management-crud/internal/logging"
	"github.com/HaidarGhanem/management-crud/internal/server"
	"github.com/HaidarGhanem/management-crud/internal/storage"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		fatal("config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, cleanup, err := newDriver(ctx, cfg)
	if err != nil {
		fatal("storage", err)
	}
	defer cleanup()

	items := inventory.NewStore(driver)
	lg := ledger.New(driver)
	take := inventory.NewProcessor(items, lg)

	r := server.NewRouter(cfg, items, lg, take, driver)
	srv := server.New(cfg, r)

	slog.Info("listening", "url", listenURL(cfg.HTTPAddr), "driver", cfg.Storage.Driver)
	if err := srv.Start(ctx); err != nil {
		fatal("server", err)
	}
}

func newDriver(ctx context.Context, cfg config.Config) (storage.Driver, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := storage.ConnectPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		driver, err := storage.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return driver, pool.Close, nil
	case config.DriverMemory:
		return storage.NewMemory(), func() {}, nil
	default:
		driver, err := storage.NewFile(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return driver, func() {}, nil
	}
}

func fatal(scope string, err error) {
	slog.Error(fmt.Sprintf("%s: %v", scope, err))
	os.Exit(1)
}

func listenURL(addr string) string {
	listen := addr
	if strings.HasPrefix(listen, ":") {
		listen = "127.0.0.1" + listen
	} else if strings.HasPrefix(listen, "0.0.0.0:") {
		listen = "127.0.0.1" + listen[len("0.0.0.0"):]
	}
	if !strings.Contains(listen, "://") {
		listen = "http://" + listen
	}
	return listen
}

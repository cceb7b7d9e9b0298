package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "Management CRUD"
	defaultAppEnv          = "development"
	defaultAppURL          = "http://127.0.0.1:8080"
	defaultHTTPAddr        = ":8080"
	defaultShutdownTimeout = 5 * time.Second
	defaultStorageDriver   = DriverFile
	defaultDataDir         = "./data"
	defaultDBMaxConns      = int32(4)
	defaultDBConnLifetime  = 30 * time.Minute
	defaultDBConnIdleTime  = 5 * time.Minute
	defaultWriteRateWindow = time.Minute
)

// Storage driver names accepted in STORAGE_DRIVER.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	AppName         string
	AppEnv          string
	AppURL          string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Storage         StorageConfig
	Database        DatabaseConfig
	WriteRate       WriteRateConfig
}

type StorageConfig struct {
	Driver  string
	DataDir string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// WriteRateConfig throttles mutating requests per client IP.
// Requests == 0 leaves the limiter disabled.
type WriteRateConfig struct {
	Requests int
	Window   time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		AppName:         defaultAppName,
		AppEnv:          defaultAppEnv,
		AppURL:          defaultAppURL,
		HTTPAddr:        defaultHTTPAddr,
		ShutdownTimeout: defaultShutdownTimeout,
		Storage: StorageConfig{
			Driver:  defaultStorageDriver,
			DataDir: defaultDataDir,
		},
		Database: DatabaseConfig{
			MaxConns:        defaultDBMaxConns,
			MaxConnLifetime: defaultDBConnLifetime,
			MaxConnIdleTime: defaultDBConnIdleTime,
		},
		WriteRate: WriteRateConfig{
			Window: defaultWriteRateWindow,
		},
	}

	if v := strings.TrimSpace(os.Getenv("APP_NAME")); v != "" {
		cfg.AppName = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_ENV")); v != "" {
		cfg.AppEnv = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_URL")); v != "" {
		cfg.AppURL = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("STORAGE_DRIVER")); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	switch cfg.Storage.Driver {
	case DriverFile, DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be one of file, postgres, memory (got %q)", cfg.Storage.Driver)
	}
	if v := strings.TrimSpace(os.Getenv("DATA_DIR")); v != "" {
		cfg.Storage.DataDir = v
	}

	appURL, err := url.Parse(strings.TrimSpace(cfg.AppURL))
	if err != nil || appURL.Scheme == "" || appURL.Host == "" {
		return Config{}, errors.New("APP_URL must be a valid absolute URL")
	}
	if strings.EqualFold(cfg.AppEnv, "production") && !strings.EqualFold(appURL.Scheme, "https") {
		return Config{}, errors.New("APP_URL must use https in production")
	}
	cfg.AppURL = appURL.String()

	cfg.Database.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.Storage.Driver == DriverPostgres && cfg.Database.URL == "" {
		return Config{}, errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_MAX_CONNS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.New("DATABASE_MAX_CONNS must be a positive integer")
		}
		cfg.Database.MaxConns = int32(n)
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_MAX_CONN_LIFETIME")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_MAX_CONN_LIFETIME: %w", err)
		}
		cfg.Database.MaxConnLifetime = d
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_MAX_CONN_IDLE_TIME")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_MAX_CONN_IDLE_TIME: %w", err)
		}
		cfg.Database.MaxConnIdleTime = d
	}

	if v := strings.TrimSpace(os.Getenv("WRITE_RATE_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, errors.New("WRITE_RATE_LIMIT must be a non-negative integer")
		}
		cfg.WriteRate.Requests = n
	}
	if v := strings.TrimSpace(os.Getenv("WRITE_RATE_WINDOW")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse WRITE_RATE_WINDOW: %w", err)
		}
		cfg.WriteRate.Window = d
	}

	return cfg, nil
}

func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("empty duration")
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	seconds, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

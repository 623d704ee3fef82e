package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Gateway  GatewayConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Env     string
	DataDir string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type GatewayConfig struct {
	BaseURL string
	Token   string
	Cookies string // "name=value; name=value"
	Timeout time.Duration
	Retries int
}

type StorageConfig struct {
	Backend    string // "csv" or "sqlite"
	SQLitePath string
}

type PipelineConfig struct {
	FetchConcurrency int
	TransformWorkers int // 0 means GOMAXPROCS
	FlagshipClient   string
	FlagshipSite     string

	// Clients is the tenant roster, "NAME:ID" pairs separated by commas.
	// The remote system has no endpoint to enumerate tenants.
	Clients string
}

func LoadEnv() *Config {
	return &Config{
		App: AppConfig{
			Env:     getEnv("APP_ENV", "dev"),
			DataDir: getEnv("DATA_DIR", "data"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("GATEWAY_BASE_URL", "https://www.vassestockage.fr"),
			Token:   getEnv("GATEWAY_TOKEN", ""),
			Cookies: getEnv("GATEWAY_COOKIES", ""),
			Timeout: getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),
			Retries: getEnvInt("GATEWAY_RETRIES", 1),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", "csv"),
			SQLitePath: getEnv("STORAGE_SQLITE_PATH", "data/stocklens.db"),
		},
		Pipeline: PipelineConfig{
			FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 20),
			TransformWorkers: getEnvInt("TRANSFORM_WORKERS", 0),
			FlagshipClient:   getEnv("FLAGSHIP_CLIENT", "TOTALENERGIES"),
			FlagshipSite:     getEnv("FLAGSHIP_SITE", "COLOMBES"),
			Clients:          getEnv("CLIENTS", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

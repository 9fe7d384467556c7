package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the converter.
type Config struct {
	// Colon separated directories searched for the correction grid.
	// Empty means PROJ_LIB, then PROJ_DATA.
	SearchPath   string `env:"PROJ_SEARCH_PATH"`
	GridName     string `env:"GRID_NAME" envDefault:"chenyx06etrs.gsb"`
	GridURL      string `env:"GRID_URL" envDefault:"http://www.swisstopo.admin.ch/internet/swisstopo/en/home/products/software/products/chenyx06.parsys.00011.downloadList.29885.DownloadFile.tmp/chenyx06etrs.gsb"`
	GridDir      string `env:"GRID_DIR" envDefault:"."`
	GridDownload bool   `env:"GRID_DOWNLOAD" envDefault:"true"`

	WGS84ToLV03URL string        `env:"REFRAME_WGS84_TO_LV03_URL" envDefault:"http://tc-geodesy.bgdi.admin.ch/reframe/wgs84tolv03"`
	LV03ToWGS84URL string        `env:"REFRAME_LV03_TO_WGS84_URL" envDefault:"http://tc-geodesy.bgdi.admin.ch/reframe/lv03towgs84"`
	Parallelism    int           `env:"REFRAME_PARALLELISM" envDefault:"1"`
	RateLimit      float64       `env:"REFRAME_RATE_LIMIT" envDefault:"0"`
	MaxAttempts    int           `env:"REFRAME_MAX_ATTEMPTS" envDefault:"1"`
	Timeout        time.Duration `env:"REFRAME_TIMEOUT" envDefault:"30s"`

	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"none"`
	DBPath       string        `env:"DB_PATH" envDefault:"data/cache.db"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"720h"`

	Port string `env:"PORT" envDefault:"8080"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	return Parse()
}

// Parse reads the process environment into a Config without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.SearchPath) == "" {
		cfg.SearchPath = DefaultSearchPath()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.GridName) == "" {
		errs = append(errs, errors.New("GRID_NAME must not be empty"))
	}
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("REFRAME_PARALLELISM must be >= 1, got %d", c.Parallelism))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("REFRAME_MAX_ATTEMPTS must be >= 1, got %d", c.MaxAttempts))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("REFRAME_RATE_LIMIT must be >= 0, got %v", c.RateLimit))
	}
	switch c.CacheBackend {
	case "none", "sqlite", "postgres", "redis":
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q is not one of none, sqlite, postgres, redis", c.CacheBackend))
	}
	if c.CacheBackend == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for CACHE_BACKEND=postgres"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// DefaultSearchPath returns the PROJ resource path announced by the environment.
// The environment is only read, never modified.
func DefaultSearchPath() string {
	if v := os.Getenv("PROJ_LIB"); v != "" {
		return v
	}
	return os.Getenv("PROJ_DATA")
}

// Get returns the environment value for key or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

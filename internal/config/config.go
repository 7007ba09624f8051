package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
)

type Config struct {
	Environment       string
	LogLevel          string
	HTTPPort          string
	GRPCAddr          string
	StoreBackend      string
	ProjectID         string
	LineChannelSecret string
	LineChannelToken  string
}

// Load reads an optional .env file and then the process environment.
// It reports whether a .env file was found so the caller can log it.
func Load(files ...string) (*Config, bool) {
	loaded := godotenv.Load(files...) == nil

	return &Config{
		Environment:       getenv("ENVIRONMENT", "development"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		HTTPPort:          getenv("PORT", "8080"),
		GRPCAddr:          getenv("GRPC_ADDR", ":40000"),
		StoreBackend:      getenv("STORE_BACKEND", StoreMemory),
		ProjectID:         os.Getenv("GOOGLE_CLOUD_PROJECT"),
		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
	}, loaded
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreMemory:
	case StoreFirestore:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT environment variable is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if (c.LineChannelSecret == "") != (c.LineChannelToken == "") {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET and LINE_CHANNEL_TOKEN must be set together"))
	}

	return errors.Join(errs...)
}

// LineEnabled reports whether the LINE webhook should be mounted.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelToken != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the serving process and the clients.
type Config struct {
	HTTPAddr    string
	ModelPath   string
	CascadeDir  string
	MaxImageDim int
	LogDir      string

	// Client-side settings.
	ServerURL     string
	ClientTimeout time.Duration
	CapturePeriod time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		ModelPath:   getEnv("MODEL_PATH", "./models/hemolens_ridge.json"),
		CascadeDir:  getEnv("CASCADE_DIR", "/usr/share/opencv4/haarcascades"),
		MaxImageDim: getEnvInt("MAX_IMAGE_DIM", 2048),
		LogDir:      getEnv("LOG_DIR", ""),

		ServerURL:     getEnv("SERVER_URL", "http://localhost:8000"),
		ClientTimeout: getEnvDuration("CLIENT_TIMEOUT", 30*time.Second),
		CapturePeriod: getEnvDuration("CAPTURE_PERIOD", 1500*time.Millisecond),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

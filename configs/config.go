package config

import (
	"os"
	"time"
)

type Config struct {
	DatabasePath    string
	ListenAddr      string
	GraphAPIVersion string
	PollInterval    time.Duration
	AccountPause    time.Duration
	PublishTimeout  time.Duration
	DownloadTimeout time.Duration
	TempDir         string
	APIKey          string
	SecretKey       string
}

func LoadConfig() *Config {
	return &Config{
		DatabasePath:    getEnv("DATABASE_PATH", "fb_scheduler.db"),
		ListenAddr:      getEnv("LISTEN_ADDR", ":3000"),
		GraphAPIVersion: getEnv("GRAPH_API_VERSION", "v24.0"),
		PollInterval:    getDuration("POLL_INTERVAL", 30*time.Second),
		AccountPause:    getDuration("ACCOUNT_PAUSE", 2*time.Second),
		PublishTimeout:  getDuration("PUBLISH_TIMEOUT", 10*time.Minute),
		DownloadTimeout: getDuration("DOWNLOAD_TIMEOUT", 60*time.Second),
		TempDir:         getEnv("TEMP_DIR", ""),
		APIKey:          getEnv("API_KEY", ""),
		SecretKey:       getEnv("SECRET_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

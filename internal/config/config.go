package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Constitution ConstitutionConfig
	Cache        CacheConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type ConstitutionConfig struct {
	DataFilePath   string
	ViewTopicName  string
	ReloadInterval time.Duration
}

type CacheConfig struct {
	// Backend is "redis" or "memory". Memory is for local development and
	// tests; redis shares entries across replicas.
	Backend string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Constitution: ConstitutionConfig{
			DataFilePath:   getEnv("CONSTITUTION_DATA_FILE", "data/constitution.json"),
			ViewTopicName:  getEnv("VIEW_TRACKED_TOPIC_NAME", "VIEW_TRACKED"),
			ReloadInterval: getEnvAsDuration("CONSTITUTION_RELOAD_INTERVAL", 0),
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", "redis"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

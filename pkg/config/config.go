// Package config provides centralized configuration management for the
// ingestion and retrieval engine, loaded from environment variables per
// spec.md §6.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

var instance *Config

// Init loads and validates the configuration. Call this once at startup.
func Init() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	instance = cfg
}

// Get returns the global configuration instance.
func Get() *Config {
	if instance == nil {
		log.Fatal("Config not initialized. Call config.Init() first.")
	}
	return instance
}

// Config holds all configuration for the application loaded from environment
// variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	S3        S3Config
	CLIP      CLIPConfig
	VLM       VLMConfig
	Embedding EmbeddingConfig
	Telegram  TelegramConfig
	Worker    WorkerConfig
}

// ServerConfig holds read-API server configuration.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds relational-store configuration.
type DatabaseConfig struct {
	URL string
}

// S3Config holds object-store configuration (spec.md §4.1 OSA).
type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
}

// CLIPConfig holds the visual-embedding service configuration.
type CLIPConfig struct {
	APIURL string
}

// VLMConfig holds the OCR vision-language-model configuration.
type VLMConfig struct {
	APIBase string
	APIKey  string
	Model   string
}

// EmbeddingConfig holds the text-embedding service configuration.
type EmbeddingConfig struct {
	APIBase string
	APIKey  string
	Model   string
}

// TelegramConfig holds chat-transport credentials.
type TelegramConfig struct {
	BotToken string
}

// WorkerConfig holds task-queue worker pool configuration.
type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

// Load loads configuration from environment variables and validates required
// fields. Returns an error if any required configuration is missing.
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: getEnvOrDefault("S3_PUBLIC_ENDPOINT", os.Getenv("S3_ENDPOINT")),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Bucket:         getEnvOrDefault("S3_BUCKET", "brainpile"),
		},
		CLIP: CLIPConfig{
			APIURL: os.Getenv("CLIP_API_URL"),
		},
		VLM: VLMConfig{
			APIBase: os.Getenv("VLM_API_BASE"),
			APIKey:  os.Getenv("VLM_API_KEY"),
			Model:   os.Getenv("VLM_MODEL"),
		},
		Embedding: EmbeddingConfig{
			APIBase: os.Getenv("EMBEDDING_API_BASE"),
			APIKey:  os.Getenv("EMBEDDING_API_KEY"),
			Model:   os.Getenv("EMBEDDING_MODEL"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TG_BOT_TOKEN"),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvIntOrDefault("WORKER_CONCURRENCY", 4),
			PollInterval: getEnvDurationOrDefault("LEASE_POLL_INTERVAL", 2*time.Second),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration is present.
// Returns an error describing which required field is missing.
func (c *Config) Validate() error {
	required := map[string]string{
		"DATABASE_URL":       c.Database.URL,
		"S3_ENDPOINT":        c.S3.Endpoint,
		"S3_ACCESS_KEY":      c.S3.AccessKey,
		"S3_SECRET_KEY":      c.S3.SecretKey,
		"CLIP_API_URL":       c.CLIP.APIURL,
		"VLM_API_BASE":       c.VLM.APIBase,
		"VLM_API_KEY":        c.VLM.APIKey,
		"VLM_MODEL":          c.VLM.Model,
		"EMBEDDING_API_BASE": c.Embedding.APIBase,
		"EMBEDDING_API_KEY":  c.Embedding.APIKey,
		"EMBEDDING_MODEL":    c.Embedding.Model,
		"TG_BOT_TOKEN":       c.Telegram.BotToken,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s environment variable is required", name)
		}
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault gets an integer environment variable or returns a default value.
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault gets a duration environment variable or returns a default value.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

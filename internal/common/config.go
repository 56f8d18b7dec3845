package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	LLM        LLMConfig
	Extraction ExtractionConfig
	Jobs       JobsConfig
}

// DatabaseConfig holds catalog store configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCHealthAddr string
	UploadDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// LLMConfig holds inference provider configuration
type LLMConfig struct {
	Provider       string // openai | bedrock | vertex | "" (disabled)
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float32
	Timeout        time.Duration
	MaxRetries     int
	ResponseBudget int
	AWSRegion      string
	GCPProject     string
	GCPRegion      string
}

// ExtractionConfig holds tuning for the extraction routes
type ExtractionConfig struct {
	VocabularyPath string
	SampleRows     int
	MaxPages       int
	DefaultUnit    string
	Workers        int
	QueueSize      int
	PdftoppmPath   string
	HeicConverter  string
}

// JobsConfig selects the job store
type JobsConfig struct {
	Backend       string // memory | redis
	RedisURL      string
	TTL           time.Duration
	SweepInterval time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ":8081"),
			UploadDir:      getEnv("UPLOAD_DIR", os.TempDir()),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 64)) << 20,
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", "")),
			Model:          getEnv("LLM_MODEL", ""),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:    getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
			MaxRetries:     getEnvAsInt("LLM_MAX_RETRIES", 2),
			ResponseBudget: getEnvAsInt("LLM_RESPONSE_BUDGET", 8192),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			GCPProject:     getEnv("GCP_PROJECT", ""),
			GCPRegion:      getEnv("GCP_REGION", "us-central1"),
		},
		Extraction: ExtractionConfig{
			VocabularyPath: getEnv("CATALOG_VOCABULARY_PATH", ""),
			SampleRows:     getEnvAsInt("CATALOG_SAMPLE_ROWS", 50),
			MaxPages:       getEnvAsInt("CATALOG_MAX_PAGES", 5),
			DefaultUnit:    getEnv("CATALOG_DEFAULT_UNIT", "pc"),
			Workers:        getEnvAsInt("CATALOG_WORKERS", 2),
			QueueSize:      getEnvAsInt("CATALOG_QUEUE_SIZE", 64),
			PdftoppmPath:   getEnv("PDFTOPPM_PATH", "pdftoppm"),
			HeicConverter:  getEnv("HEIC_CONVERTER", "magick"),
		},
		Jobs: JobsConfig{
			Backend:       strings.ToLower(getEnv("JOB_STORE", "memory")),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:           getEnvAsDuration("JOB_TTL", 24*time.Hour),
			SweepInterval: getEnvAsDuration("JOB_SWEEP_INTERVAL", 10*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError(CodeConfig, "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "":
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required for the openai provider", ErrInvalidInput)
		}
	case "bedrock":
		if c.LLM.AWSRegion == "" {
			return NewAppError(CodeConfig, "AWS_REGION is required for the bedrock provider", ErrInvalidInput)
		}
	case "vertex":
		if c.LLM.GCPProject == "" {
			return NewAppError(CodeConfig, "GCP_PROJECT is required for the vertex provider", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "LLM_PROVIDER must be openai, bedrock, vertex or empty", ErrInvalidInput)
	}
	switch c.Jobs.Backend {
	case "memory", "redis":
	default:
		return NewAppError(CodeConfig, "JOB_STORE must be memory or redis", ErrInvalidInput)
	}
	if c.Extraction.SampleRows <= 0 || c.Extraction.Workers <= 0 {
		return NewAppError(CodeConfig, "CATALOG_SAMPLE_ROWS and CATALOG_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}

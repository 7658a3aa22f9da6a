package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" | "sqlite"
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
	GRPCAddr string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine           string // "gosseract" | "cli"
	Languages        string // tesseract language spec, e.g. "spa+eng"
	Tesseract        string
	Pdftoppm         string
	TessdataDir      string
	HeicConverter    string
	ArtifactCacheDir string
	DPI              int
	Concurrency      int
	MinConfidence    float64
}

// VisionConfig selects the optional vision model used next to local OCR.
type VisionConfig struct {
	Provider    string // "none" | "gemini" | "openai" | "ollama"
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// IngestConfig drives the inbox watcher and the import worker queue.
type IngestConfig struct {
	InboxDirs    []string
	Debounce     time.Duration
	Workers      int
	QueueSize    int
	ProcessLimit time.Duration
	EmployeeName string // roster row picked from PDF rosters
	EmployeeID   string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "file:shifts.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Engine:           getEnv("OCR_ENGINE", "gosseract"),
			Languages:        getEnv("OCR_LANGUAGES", "spa+eng"),
			Tesseract:        getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:         getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			DPI:              getEnvAsInt("OCR_PDF_DPI", 300),
			Concurrency:      getEnvAsInt("OCR_CONCURRENCY", 4),
			MinConfidence:    getEnvAsFloat64("OCR_MIN_CONFIDENCE", 20),
		},
		Vision: VisionConfig{
			Provider:    strings.ToLower(getEnv("VISION_PROVIDER", "none")),
			APIKey:      getEnv("VISION_API_KEY", os.Getenv("GEMINI_API_KEY")),
			Model:       getEnv("VISION_MODEL", ""),
			BaseURL:     getEnv("VISION_BASE_URL", ""),
			Temperature: getEnvAsFloat32("VISION_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("VISION_TIMEOUT", 60*time.Second),
		},
		Ingest: IngestConfig{
			InboxDirs:    getEnvAsList("INBOX_DIRS"),
			Debounce:     getEnvAsDuration("INBOX_DEBOUNCE", 750*time.Millisecond),
			Workers:      getEnvAsInt("IMPORT_WORKERS", 2),
			QueueSize:    getEnvAsInt("IMPORT_QUEUE_SIZE", 64),
			ProcessLimit: getEnvAsDuration("IMPORT_TIMEOUT", 5*time.Minute),
			EmployeeName: getEnv("ROSTER_EMPLOYEE_NAME", ""),
			EmployeeID:   getEnv("ROSTER_EMPLOYEE_ID", ""),
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "gosseract", "cli":
	default:
		return NewAppError("CONFIG_ERROR", "OCR_ENGINE must be gosseract or cli", ErrInvalidInput)
	}
	if c.OCR.Concurrency <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_CONCURRENCY must be positive", ErrInvalidInput)
	}
	switch c.Vision.Provider {
	case "none", "ollama":
	case "gemini", "openai":
		if c.Vision.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "VISION_API_KEY is required for "+c.Vision.Provider, ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "VISION_PROVIDER must be none, gemini, openai or ollama", ErrInvalidInput)
	}
	return nil
}

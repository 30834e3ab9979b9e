package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Queue driver names.
const (
	QueueDriverMemory = "memory"
	QueueDriverAMQP   = "amqp"
)

// Config holds application configuration
type Config struct {
	DatabasePath     string
	ServerPort       string
	ClientOrigins    string
	OpenAIKey        string
	AIModel          string
	AIBaseURL        string
	QueueDriver      string
	QueueBuffer      int
	RabbitMQURL      string
	RabbitMQPrefetch int
	RateLimit        string
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from the environment. A .env file in the working
// directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:     getEnv("DB_PATH", "flicklist.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		ClientOrigins:    getEnv("CLIENT_ORIGINS", "http://localhost:3000"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		QueueDriver:      getEnv("QUEUE_DRIVER", QueueDriverMemory),
		QueueBuffer:      getEnvInt("QUEUE_BUFFER", 128),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		RateLimit:        getEnv("RATE_LIMIT", "100-M"),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.QueueDriver {
	case QueueDriverMemory:
	case QueueDriverAMQP:
		if cfg.RabbitMQURL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL is required when QUEUE_DRIVER=amqp")
		}
	default:
		return nil, fmt.Errorf("unknown QUEUE_DRIVER %q (must be %q or %q)", cfg.QueueDriver, QueueDriverMemory, QueueDriverAMQP)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger backends
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Env       string
	LogLevel  string
	Server    ServerConfig
	Redis     RedisConfig
	Booking   BookingConfig
	Gateway   GatewayConfig
	Triage    TriageConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Cache     ResponseCacheConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	StreamHeartbeat time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// BookingConfig selects the booking ledger backend
type BookingConfig struct {
	Ledger string
}

// GatewayConfig holds the AI classification gateway configuration
type GatewayConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	RateLimitRPM   int
	RateLimitBurst int
}

// TriageConfig holds symptom classification session settings
type TriageConfig struct {
	Timeout         time.Duration
	SessionCapacity int
	SessionTTL      time.Duration
}

// CatalogConfig points at an optional provider catalog override
type CatalogConfig struct {
	Path string
}

// RateLimitConfig holds inbound per-client rate limits
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// ResponseCacheConfig holds the in-process directory response cache settings
type ResponseCacheConfig struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsSeconds("SERVER_READ_TIMEOUT_SECONDS", 15*time.Second),
			WriteTimeout:    getEnvAsSeconds("SERVER_WRITE_TIMEOUT_SECONDS", 60*time.Second),
			IdleTimeout:     getEnvAsSeconds("SERVER_IDLE_TIMEOUT_SECONDS", 120*time.Second),
			ShutdownTimeout: getEnvAsSeconds("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
			StreamHeartbeat: getEnvAsSeconds("SSE_HEARTBEAT_SECONDS", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Booking: BookingConfig{
			Ledger: strings.ToLower(getEnv("BOOKING_LEDGER", LedgerMemory)),
		},
		Gateway: GatewayConfig{
			APIKey:         getEnv("AI_GATEWAY_API_KEY", ""),
			BaseURL:        strings.TrimRight(getEnv("AI_GATEWAY_BASE_URL", "https://ai.gateway.lovable.dev/v1"), "/"),
			Model:          getEnv("AI_GATEWAY_MODEL", "google/gemini-3-flash-preview"),
			Timeout:        getEnvAsSeconds("AI_GATEWAY_TIMEOUT_SECONDS", 30*time.Second),
			RateLimitRPM:   getEnvAsInt("AI_GATEWAY_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("AI_GATEWAY_RATE_LIMIT_BURST", 5),
		},
		Triage: TriageConfig{
			Timeout:         getEnvAsSeconds("TRIAGE_TIMEOUT_SECONDS", 45*time.Second),
			SessionCapacity: getEnvAsInt("TRIAGE_SESSION_CAPACITY", 1000),
			SessionTTL:      time.Duration(getEnvAsInt("TRIAGE_SESSION_TTL_MINUTES", 30)) * time.Minute,
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Cache: ResponseCacheConfig{
			Enabled: getEnvAsBool("RESPONSE_CACHE_ENABLED", true),
			Size:    getEnvAsInt("RESPONSE_CACHE_SIZE", 512),
			TTL:     getEnvAsSeconds("RESPONSE_CACHE_TTL_SECONDS", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "careroute"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.Booking.Ledger {
	case LedgerMemory:
	case LedgerRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("BOOKING_LEDGER=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown BOOKING_LEDGER %q (use %s or %s)", c.Booking.Ledger, LedgerMemory, LedgerRedis)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
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
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

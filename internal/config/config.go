package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=inventory port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	DBLog       bool
	JWTSecret   string
	JWTTTLMin   int
	CORSOrigins string

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	EmailFrom      string
	EmailToDefault []string

	NotifyQueue     string // memory | redis
	NotifyWorkers   int
	NotifyQueueSize int
	RedisAddr       string
	RedisQueueKey   string

	LowStockPolicy     string
	LoginRatePerMinute int
	OTLPEndpoint       string
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		DBLog:       getEnvBool("DB_LOG", false),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTTLMin:   getEnvInt("JWT_TTL_MINUTES", 60),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "MIS Inventory <noreply@inventory.local>"),
		EmailToDefault: SplitList(getEnv("EMAIL_TO_DEFAULT", "")),

		NotifyQueue:     strings.ToLower(getEnv("NOTIFY_QUEUE", "memory")),
		NotifyWorkers:   getEnvInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 1000),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisQueueKey:   getEnv("REDIS_QUEUE_KEY", "inventory:notifications"),

		LowStockPolicy:     getEnv("LOW_STOCK_POLICY", "crossing_or_decrement"),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 20),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN not set, using the local development default")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS not set, only the dev frontend is allowed")
	}
	if cfg.SMTPHost == "" {
		log.Println("[WARN] SMTP_HOST not set, notifications will only be logged")
	}
	if cfg.NotifyQueue != "memory" && cfg.NotifyQueue != "redis" {
		log.Fatalf("[FATAL] NOTIFY_QUEUE must be 'memory' or 'redis', got %q", cfg.NotifyQueue)
	}

	return cfg
}

// LoadDatabase reads only the database settings, for tools that do not serve
// HTTP and therefore need no JWT secret.
func LoadDatabase() *Config {
	return &Config{
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		DBLog:       getEnvBool("DB_LOG", false),
	}
}

type AdminSeed struct {
	Username string
	Password string
	Name     string
	Email    string
}

func LoadAdminSeed() AdminSeed {
	seed := AdminSeed{
		Username: getEnv("ADMIN_USERNAME", "admin"),
		Password: getEnv("ADMIN_PASSWORD", "Admin123!"),
		Name:     getEnv("ADMIN_NAME", "System Admin"),
	}
	seed.Email = getEnv("ADMIN_EMAIL", seed.Username+"@inventory.local")
	if os.Getenv("ADMIN_PASSWORD") == "" {
		log.Println("[WARN] ADMIN_PASSWORD not set, using the default password; change it after the first login")
	}
	return seed
}

// SplitList splits a comma separated list, trimming blanks and dropping
// duplicates while keeping the first occurrence order.
func SplitList(v string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a boolean, using %v", key, v, def)
		return def
	}
	return b
}

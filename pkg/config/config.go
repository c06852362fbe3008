package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Source modes for per-symbol series
const (
	SourceChain = "chain" // DB 우선, 부족하면 Naver
	SourceDB    = "db"
	SourceNaver = "naver"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Naver NaverConfig

	// Signal engine
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL   string
	ChartURL  string
	RateLimit int           // 초당 요청 수
	Timeout   time.Duration // 요청 타임아웃
}

// EngineConfig holds scoring/ranking runtime settings.
// Zero values for PerSector/TopK/Lookback keep the strategy file values.
type EngineConfig struct {
	StrategyPath string
	Source       string // chain, db, naver

	Workers   int
	FetchRate float64 // 초당 fetch 시작 수 (0 = 무제한)

	PerSector int
	TopK      int
	Lookback  int

	CacheTTL time.Duration
	Flow     bool // 수급 가중 사용
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Naver: NaverConfig{
			BaseURL:   getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL:  getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			RateLimit: getEnvAsInt("NAVER_RATE_LIMIT", 10),
			Timeout:   getEnvAsDuration("NAVER_TIMEOUT", "10s"),
		},

		Engine: EngineConfig{
			StrategyPath: getEnv("STRATEGY_PATH", ""),
			Source:       getEnv("SERIES_SOURCE", SourceChain),
			Workers:      getEnvAsInt("ENGINE_WORKERS", 8),
			FetchRate:    getEnvAsFloat("ENGINE_FETCH_RATE", 0),
			PerSector:    getEnvAsInt("SECTOR_PER_SECTOR", 0),
			TopK:         getEnvAsInt("SECTOR_TOP_K", 0),
			Lookback:     getEnvAsInt("SECTOR_LOOKBACK", 0),
			CacheTTL:     getEnvAsDuration("SECTOR_CACHE_TTL", "5m"),
			Flow:         getEnvAsBool("SECTOR_FLOW_ENABLED", true),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// UsesDatabase reports whether the configured source needs PostgreSQL
func (c *Config) UsesDatabase() bool {
	return c.Engine.Source != SourceNaver
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Engine.Source {
	case SourceChain, SourceDB, SourceNaver:
	default:
		return fmt.Errorf("SERIES_SOURCE must be one of: %s, %s, %s", SourceChain, SourceDB, SourceNaver)
	}

	// Naver 단독 모드가 아니면 DB 필수
	if c.UsesDatabase() && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Engine.Workers <= 0 {
		return fmt.Errorf("ENGINE_WORKERS must be > 0")
	}
	if c.Engine.FetchRate < 0 {
		return fmt.Errorf("ENGINE_FETCH_RATE must be >= 0")
	}
	if c.Engine.PerSector < 0 || c.Engine.TopK < 0 || c.Engine.Lookback < 0 {
		return fmt.Errorf("SECTOR_PER_SECTOR, SECTOR_TOP_K and SECTOR_LOOKBACK must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Oracle      OracleConfig      `mapstructure:"oracle"`
	ImageSearch ImageSearchConfig `mapstructure:"image_search"`
	StockPhoto  StockPhotoConfig  `mapstructure:"stock_photo"`
	Cache       CacheConfig       `mapstructure:"cache"`
	AICache     AICacheConfig     `mapstructure:"ai_cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Store       StoreConfig       `mapstructure:"store"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Session     SessionConfig     `mapstructure:"session"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	LogDir      string            `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	VisionModel string        `mapstructure:"vision_model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// OracleConfig 推薦與食譜生成設定
type OracleConfig struct {
	SuggestTimeout time.Duration `mapstructure:"suggest_timeout"`
	DetailTimeout  time.Duration `mapstructure:"detail_timeout"`
	ScanTimeout    time.Duration `mapstructure:"scan_timeout"`
	ScanMaxBytes   int64         `mapstructure:"scan_max_bytes"`
	Cuisine        string        `mapstructure:"cuisine"`
	Currency       string        `mapstructure:"currency"`
	MinDishes      int           `mapstructure:"min_dishes"`
	MaxDishes      int           `mapstructure:"max_dishes"`
	// NameAliases 以 "前綴=替換" 表示，例如 "Adobo=Chicken Adobo"
	NameAliases []string `mapstructure:"name_aliases"`
}

// ImageSearchConfig 圖片搜尋設定
type ImageSearchConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	EngineID        string        `mapstructure:"engine_id"`
	Country         string        `mapstructure:"country"`
	LocalTerm       string        `mapstructure:"local_term"`
	ResultsPerQuery int           `mapstructure:"results_per_query"`
	MaxQueries      int           `mapstructure:"max_queries"`
	AllowedDomains  []string      `mapstructure:"allowed_domains"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	VerifyTimeout   time.Duration `mapstructure:"verify_timeout"`
	VerifyMaxBytes  int64         `mapstructure:"verify_max_bytes"`
}

// Configured 是否已設定搜尋金鑰
func (c ImageSearchConfig) Configured() bool {
	return c.APIKey != "" && c.EngineID != ""
}

// StockPhotoConfig 圖庫備援設定
type StockPhotoConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Host    string        `mapstructure:"host"`
	Size    string        `mapstructure:"size"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig 本機結果快取配置
type CacheConfig struct {
	DocumentKey string `mapstructure:"document_key"`
	// MaxEntries 為 0 時不限制筆數
	MaxEntries int `mapstructure:"max_entries"`
}

// AICacheConfig AI 回應快取配置
type AICacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// QueueConfig AI 呼叫排隊配置
type QueueConfig struct {
	// Workers 同時進行的 AI 呼叫上限，0 表示不限制
	Workers int `mapstructure:"workers"`
	// MaxSize 等待中的呼叫上限，0 表示不限制
	MaxSize int `mapstructure:"max_size"`
}

// StoreConfig 文件儲存配置
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // file | redis | memory
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// DatabaseConfig 收藏資料庫配置
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

// AuthConfig 身分驗證配置
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// SessionConfig 會話設定
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.api_key":     "OPENROUTER_API_KEY",
		"openrouter.model":       "OPENROUTER_MODEL",
		"openrouter.max_tokens":  "MODEL_MAX_TOKENS",
		"image_search.api_key":   "SEARCH_API_KEY",
		"image_search.engine_id": "SEARCH_ENGINE_ID",
		"auth.jwt_secret":        "AUTH_JWT_SECRET",
		"database.dsn":           "DATABASE_DSN",
		"store.redis_addr":       "REDIS_ADDR",
		"rate_limit.enabled":     "RATE_LIMIT_ENABLED",
		"rate_limit.requests":    "RATE_LIMIT_REQUESTS",
		"rate_limit.window":      "RATE_LIMIT_WINDOW",
		"dedup_window":           "DEDUP_WINDOW",
		"log_level":              "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(v.GetString("openrouter.api_key")), "openrouter_model:", v.GetString("openrouter.model"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "ulam-ai")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "google/gemini-2.5-flash")
	v.SetDefault("openrouter.vision_model", "google/gemini-2.5-flash")
	v.SetDefault("openrouter.max_tokens", 4096)
	v.SetDefault("openrouter.timeout", "40s")

	// 推薦 / 食譜設定
	v.SetDefault("oracle.suggest_timeout", "40s")
	v.SetDefault("oracle.detail_timeout", "40s")
	v.SetDefault("oracle.scan_timeout", "30s")
	v.SetDefault("oracle.scan_max_bytes", 8<<20)
	v.SetDefault("oracle.cuisine", "Filipino")
	v.SetDefault("oracle.currency", "PHP")
	v.SetDefault("oracle.min_dishes", 8)
	v.SetDefault("oracle.max_dishes", 15)
	v.SetDefault("oracle.name_aliases", []string{"Adobo=Chicken Adobo", "Sinigang=Sinigang na Baboy", "Kare=Kare-Kare"})

	// 圖片搜尋設定
	v.SetDefault("image_search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("image_search.country", "philippines")
	v.SetDefault("image_search.local_term", "ulam pinoy")
	v.SetDefault("image_search.results_per_query", 3)
	v.SetDefault("image_search.max_queries", 4)
	v.SetDefault("image_search.allowed_domains", []string{"panlasangpinoy", "kawalingpinoy", "yummy", "recipe", "food", "cook"})
	v.SetDefault("image_search.query_timeout", "5s")
	v.SetDefault("image_search.verify_timeout", "3s")
	v.SetDefault("image_search.verify_max_bytes", 5<<20)

	// 圖庫備援
	v.SetDefault("stock_photo.enabled", true)
	v.SetDefault("stock_photo.base_url", "https://source.unsplash.com")
	v.SetDefault("stock_photo.host", "unsplash.com")
	v.SetDefault("stock_photo.size", "800x600")
	v.SetDefault("stock_photo.timeout", "3s")

	// 快取設定
	v.SetDefault("cache.document_key", "ulam_ai_recipe_cache_v1")
	v.SetDefault("cache.max_entries", 500)
	v.SetDefault("ai_cache.enabled", true)
	v.SetDefault("ai_cache.max_size", 200)
	v.SetDefault("ai_cache.ttl", "24h")

	// 排隊設定
	v.SetDefault("queue.workers", 8)
	v.SetDefault("queue.max_size", 64)

	// 儲存設定
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", "ulam:")

	// 收藏資料庫
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/ulam.db")

	// 身分驗證
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "authenticated")

	// 會話
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.DocumentKey == "" {
		return fmt.Errorf("cache document key is required")
	}
	if config.Cache.MaxEntries < 0 {
		return fmt.Errorf("invalid cache max entries")
	}

	if config.AICache.Enabled {
		if config.AICache.MaxSize <= 0 {
			return fmt.Errorf("invalid ai cache max size")
		}
		if config.AICache.TTL <= 0 {
			return fmt.Errorf("invalid ai cache ttl")
		}
	}

	if config.Queue.Workers < 0 || config.Queue.MaxSize < 0 {
		return fmt.Errorf("invalid queue size")
	}

	switch config.Store.Driver {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unsupported store driver: %s", config.Store.Driver)
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Oracle.MinDishes <= 0 || config.Oracle.MaxDishes < config.Oracle.MinDishes {
		return fmt.Errorf("invalid dish count range")
	}

	if config.ImageSearch.VerifyTimeout <= 0 || config.ImageSearch.QueryTimeout <= 0 {
		return fmt.Errorf("image search timeouts must be positive")
	}

	if config.Session.TTL <= 0 || config.Session.CleanupInterval <= 0 {
		return fmt.Errorf("invalid session ttl")
	}

	return nil
}

package config

import "time"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Google     GoogleConfig     `mapstructure:"google"`
	DataForSEO DataForSEOConfig `mapstructure:"dataforseo"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Security   SecurityConfig   `mapstructure:"security"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	FrontendURL     string        `mapstructure:"frontend_url"`
	StaticDir       string        `mapstructure:"static_dir"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GoogleConfig struct {
	ClientID              string `mapstructure:"client_id"`
	ClientSecret          string `mapstructure:"client_secret"`
	RedirectURL           string `mapstructure:"redirect_url"`
	AuthEndpoint          string `mapstructure:"auth_endpoint"`
	TokenEndpoint         string `mapstructure:"token_endpoint"`
	UserInfoEndpoint      string `mapstructure:"userinfo_endpoint"`
	SearchConsoleEndpoint string `mapstructure:"search_console_endpoint"`
	AnalyticsDataEndpoint string `mapstructure:"analytics_data_endpoint"`
}

type DataForSEOConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	Login        string  `mapstructure:"login"`
	Password     string  `mapstructure:"password"`
	LocationCode int     `mapstructure:"location_code"`
	LanguageCode string  `mapstructure:"language_code"`
	QPS          float64 `mapstructure:"qps"`
}

type GeminiConfig struct {
	Endpoint string  `mapstructure:"endpoint"`
	APIKey   string  `mapstructure:"api_key"`
	Model    string  `mapstructure:"model"`
	QPS      float64 `mapstructure:"qps"`
}

// UpstreamConfig tunes the shared outbound transport
type UpstreamConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerReset    time.Duration `mapstructure:"breaker_reset"`
	QPS             float64       `mapstructure:"qps"`
}

type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SecurityConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type RateLimitConfig struct {
	APIMax    int           `mapstructure:"api_max"`
	APIWindow time.Duration `mapstructure:"api_window"`
	AIMax     int           `mapstructure:"ai_max"`
	AIWindow  time.Duration `mapstructure:"ai_window"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}

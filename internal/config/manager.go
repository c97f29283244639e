package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. NETFUSION_CACHE_CAPACITY
const EnvPrefix = "NETFUSION"

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads defaults, then the optional config file, then environment
// overrides. An empty path or a missing file means defaults plus env only.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configPath = configPath
	m.setupViper()

	config, err := m.read()
	if err != nil {
		return nil, err
	}

	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	config, err := m.read()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.configPath != "" {
		if _, err := os.Stat(m.configPath); err == nil {
			m.viper.SetConfigFile(m.configPath)
			if err := m.viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (m *manager) setupViper() {
	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
	setDefaults(m.viper)
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.frontend_url", "http://localhost:5173")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "http://localhost:3000/auth/google/callback")
	v.SetDefault("google.auth_endpoint", "https://accounts.google.com/o/oauth2/v2/auth")
	v.SetDefault("google.token_endpoint", "https://oauth2.googleapis.com/token")
	v.SetDefault("google.userinfo_endpoint", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("google.search_console_endpoint", "https://www.googleapis.com/webmasters/v3")
	v.SetDefault("google.analytics_data_endpoint", "https://analyticsdata.googleapis.com/v1beta")

	v.SetDefault("dataforseo.endpoint", "https://api.dataforseo.com/v3")
	v.SetDefault("dataforseo.login", "")
	v.SetDefault("dataforseo.password", "")
	v.SetDefault("dataforseo.location_code", 2158)
	v.SetDefault("dataforseo.language_code", "zh")
	v.SetDefault("dataforseo.qps", 2.0)

	v.SetDefault("gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.qps", 1.0)

	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.max_retries", 2)
	v.SetDefault("upstream.retry_delay", 500*time.Millisecond)
	v.SetDefault("upstream.breaker_failures", 5)
	v.SetDefault("upstream.breaker_reset", 30*time.Second)
	v.SetDefault("upstream.qps", 10.0)

	v.SetDefault("cache.capacity", 500)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.session_ttl", 7*24*time.Hour)

	v.SetDefault("ratelimit.api_max", 100)
	v.SetDefault("ratelimit.api_window", 15*time.Minute)
	v.SetDefault("ratelimit.ai_max", 20)
	v.SetDefault("ratelimit.ai_window", time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if len(config.Security.JWTSecret) < 16 {
		return fmt.Errorf("security.jwt_secret must be at least 16 characters (env: %s_SECURITY_JWT_SECRET)", EnvPrefix)
	}

	if config.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream max_retries cannot be negative")
	}

	return nil
}

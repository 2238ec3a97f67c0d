package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server   `mapstructure:",squash"`
	Upstream Upstream `mapstructure:",squash"`
	Reports  Reports  `mapstructure:",squash"`
	Access   Access   `mapstructure:",squash"`
	Redis    Redis    `mapstructure:",squash"`
	LogLevel string   `mapstructure:"log_level"`
	GoEnv    string   `mapstructure:"go_env"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

// Upstream describes the Chifles REST API and the service credential used
// when the inbound request carries none.
type Upstream struct {
	URL            string `mapstructure:"api_url"`
	AuthURL        string `mapstructure:"auth_url"`
	Token          string `mapstructure:"api_token"`
	User           string `mapstructure:"api_user"`
	Password       string `mapstructure:"api_password"`
	TimeoutSeconds int    `mapstructure:"upstream_timeout_seconds"`
}

func (u Upstream) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

type Reports struct {
	EnrichWorkers int   `mapstructure:"report_enrich_workers"`
	SlowMs        int64 `mapstructure:"report_slow_ms"`
}

type Access struct {
	FrontendOrigin        string `mapstructure:"frontend_origin"`
	AllowRemotePosts      bool   `mapstructure:"allow_remote_posts"`
	RateLimitEnabled      bool   `mapstructure:"rate_limit_enabled"`
	RateLimitMaxRequests  int64  `mapstructure:"rate_limit_max_requests"`
	RateLimitWindowSecond int64  `mapstructure:"rate_limit_window_seconds"`
}

type Redis struct {
	Address string `mapstructure:"redis_address"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.GoEnv), "production")
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")

	v.SetDefault("API_URL", "http://127.0.0.1:3000/chifles")
	v.SetDefault("AUTH_URL", "http://127.0.0.1:3001/api")
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("API_USER", "")
	v.SetDefault("API_PASSWORD", "")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 10)

	v.SetDefault("REPORT_ENRICH_WORKERS", 8)
	v.SetDefault("REPORT_SLOW_MS", 500)

	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:7171")
	v.SetDefault("ALLOW_REMOTE_POSTS", false)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 600)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("LOG_LEVEL", "error")
	v.SetDefault("GO_ENV", "development")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			logrus.Warn("could not load .env: " + err.Error())
		}
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about; the defaults
	// above register every key, so Unmarshal sees env overrides.
	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, err
	}

	if cfg.Reports.EnrichWorkers <= 0 {
		cfg.Reports.EnrichWorkers = 8
	}
	cfg.Upstream.URL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.URL), "/")
	cfg.Upstream.AuthURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.AuthURL), "/")

	SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

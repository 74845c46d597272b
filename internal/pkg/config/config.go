package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Adapters   AdaptersConfig   `yaml:"adapters"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type AggregatorConfig struct {
	Interval       time.Duration `yaml:"interval"`        // pause between runs; 0 = single run
	Timeout        time.Duration `yaml:"timeout"`         // per-adapter HTTP timeout
	SourcePriority []string      `yaml:"source_priority"` // merged base is built in this order
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"` // default 10
	Window   time.Duration `yaml:"window"`   // default 60s
}

type ProxyConfig struct {
	Enabled   bool     `yaml:"enabled"`
	StaticURL string   `yaml:"static_url"` // overrides the auto-rotating pool
	Sources   []string `yaml:"sources"`    // plaintext list URLs; empty = built-in defaults
}

type AdaptersConfig struct {
	Enabled     []string          `yaml:"enabled"`
	OddsAPI     OddsAPIConfig     `yaml:"oddsapi"`
	OddsIO      OddsIOConfig      `yaml:"oddsio"`
	APIFootball APIFootballConfig `yaml:"apifootball"`
	Pinnacle    PinnacleConfig    `yaml:"pinnacle"`
	Leon        LeonConfig        `yaml:"leon"`
	XBet        XBetConfig        `yaml:"xbet"`
	Marathon    MarathonConfig    `yaml:"marathon"`
	Winline     WinlineConfig     `yaml:"winline"`
}

type OddsAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type OddsIOConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Bookmaker string `yaml:"bookmaker"` // bookmaker available on the free plan
}

type APIFootballConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type PinnacleConfig struct {
	BaseURL  string `yaml:"base_url"` // ps3838 mirror by default
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

type LeonConfig struct {
	BaseURL string `yaml:"base_url"`
}

type XBetConfig struct {
	BaseURL string `yaml:"base_url"`
}

type MarathonConfig struct {
	BaseURL string `yaml:"base_url"`
}

type WinlineConfig struct {
	Enabled bool   `yaml:"enabled"` // needs a local Chrome, off by default
	BaseURL string `yaml:"base_url"`
}

type SnapshotConfig struct {
	Path string `yaml:"path"` // live artifact path, e.g. frontend/matches.json
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	SeenTTL  time.Duration `yaml:"seen_ttl"` // duplicate-suppression window, default 1h
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// Load reads a YAML config file and applies environment overrides for
// secrets and deploy-time switches. Missing optional values disable the
// corresponding feature rather than failing.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrideString(&c.Adapters.OddsAPI.APIKey, "ODDS_API_KEY")
	overrideString(&c.Adapters.OddsIO.APIKey, "ODDS_API_IO_KEY")
	overrideString(&c.Adapters.APIFootball.APIKey, "API_FOOTBALL_KEY")
	overrideString(&c.Adapters.Pinnacle.Login, "PINNACLE_LOGIN")
	overrideString(&c.Adapters.Pinnacle.Password, "PINNACLE_PASSWORD")
	overrideString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	overrideString(&c.Proxy.StaticURL, "PROXY_URL")
	overrideString(&c.Redis.Addr, "REDIS_ADDR")
	overrideString(&c.Redis.Password, "REDIS_PASSWORD")
	overrideString(&c.Postgres.DSN, "POSTGRES_DSN")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("PROXY_ENABLED"); v != "" {
		c.Proxy.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.Requests = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.Window = time.Duration(n) * time.Second
		}
	}
}

func (c *Config) applyDefaults() {
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 10
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = 60 * time.Second
	}
	if c.Aggregator.Timeout <= 0 {
		c.Aggregator.Timeout = 30 * time.Second
	}
	if len(c.Aggregator.SourcePriority) == 0 {
		c.Aggregator.SourcePriority = []string{
			"pinnacle", "oddsapi", "apifootball", "oddsio",
			"leon", "xbet", "marathon", "winline",
		}
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "frontend/matches.json"
	}
	if c.Redis.SeenTTL <= 0 {
		c.Redis.SeenTTL = time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

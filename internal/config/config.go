package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/startup-roles/backend/internal/fetch"
	"github.com/startup-roles/backend/internal/scraper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Debug        bool          `yaml:"debug"`
}

// DatabaseConfig selects persistence. Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	URL      string         `yaml:"url"`
	Postgres PostgresConfig `yaml:"postgres"`
	// AutoMigrate applies pending migrations at startup
	AutoMigrate bool `yaml:"auto_migrate"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	PoolSize int32  `yaml:"pool_size"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (p PostgresConfig) DSN() string {
	return "postgres://" + p.User + ":" + p.Password + "@" + p.Host + ":" +
		strconv.Itoa(p.Port) + "/" + p.Database + "?sslmode=" + p.SSLMode
}

// DSN returns URL when set, otherwise the DSN assembled from the postgres section.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Postgres.DSN()
}

// RedisConfig enables the shared run lock. Without a URL runs are coordinated in-process.
type RedisConfig struct {
	URL       string        `yaml:"url"`
	KeyPrefix string        `yaml:"key_prefix"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type ScraperConfig struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Browser BrowserConfig `yaml:"browser"`
	// Sources limits runs to these extractor names or source ids. Empty runs everything.
	Sources       []string             `yaml:"sources"`
	AshbyBoards   []scraper.AshbyBoard `yaml:"ashby_boards"`
	WellfoundRole string               `yaml:"wellfound_role"`
	A16Z          A16ZConfig           `yaml:"a16z"`
	RunTimeout    time.Duration        `yaml:"run_timeout"`
}

type HTTPConfig struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	Backoff   time.Duration `yaml:"backoff"`
}

type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	ProxyURL          string        `yaml:"proxy_url"`
	DisableImages     bool          `yaml:"disable_images"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	NetworkIdle       time.Duration `yaml:"network_idle"`
	Settle            time.Duration `yaml:"settle"`
	SelectorTimeout   time.Duration `yaml:"selector_timeout"`
	ScrollDelay       time.Duration `yaml:"scroll_delay"`
}

type A16ZConfig struct {
	UseAPI      bool     `yaml:"use_api"`
	JobTypes    []string `yaml:"job_types"`
	PostedSince string   `yaml:"posted_since"`
	Locations   []string `yaml:"locations"`
	Seniority   []string `yaml:"seniority"`
}

type SchedulerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ScrapeSpec  string `yaml:"scrape_spec"`
	CleanupSpec string `yaml:"cleanup_spec"`
	RunOnStart  bool   `yaml:"run_on_start"`
}

type GRPCConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// HTTPFetch converts the section into fetcher settings
func (c ScraperConfig) HTTPFetch() fetch.HTTPConfig {
	return fetch.HTTPConfig{
		UserAgent: c.HTTP.UserAgent,
		Timeout:   c.HTTP.Timeout,
		Retries:   c.HTTP.Retries,
		Backoff:   c.HTTP.Backoff,
	}
}

// BrowserFetch converts the section into browser settings, keeping defaults for zero values.
func (c ScraperConfig) BrowserFetch() fetch.BrowserConfig {
	b := fetch.DefaultBrowserConfig()
	b.Headless = c.Browser.Headless
	b.ProxyURL = c.Browser.ProxyURL
	b.DisableImages = c.Browser.DisableImages
	if c.HTTP.UserAgent != "" {
		b.UserAgent = c.HTTP.UserAgent
	}
	setDuration(&b.NavigationTimeout, c.Browser.NavigationTimeout)
	setDuration(&b.NetworkIdle, c.Browser.NetworkIdle)
	setDuration(&b.Settle, c.Browser.Settle)
	setDuration(&b.SelectorTimeout, c.Browser.SelectorTimeout)
	setDuration(&b.ScrollDelay, c.Browser.ScrollDelay)
	return b
}

// Registry converts the section into registry options
func (c ScraperConfig) Registry() scraper.RegistryOptions {
	return scraper.RegistryOptions{
		A16Z: scraper.A16ZOptions{
			JobTypes:    c.A16Z.JobTypes,
			PostedSince: c.A16Z.PostedSince,
			Locations:   c.A16Z.Locations,
			Seniority:   c.A16Z.Seniority,
		},
		WellfoundRole: c.WellfoundRole,
		AshbyBoards:   c.AshbyBoards,
		UseA16ZAPI:    c.A16Z.UseAPI,
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := defaultConfig()

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			Debug:        false,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "startup_roles",
				Password: "password",
				Database: "startup_roles",
				PoolSize: 10,
				SSLMode:  "disable",
			},
			AutoMigrate: true,
		},
		Redis: RedisConfig{
			KeyPrefix: "startup-roles:scrape",
			LockTTL:   2 * time.Hour,
		},
		Scraper: ScraperConfig{
			HTTP: HTTPConfig{
				UserAgent: fetch.DefaultUserAgent,
				Timeout:   30 * time.Second,
				Retries:   2,
				Backoff:   2 * time.Second,
			},
			Browser: BrowserConfig{
				Headless:          true,
				DisableImages:     true,
				NavigationTimeout: 30 * time.Second,
				NetworkIdle:       15 * time.Second,
				Settle:            2 * time.Second,
				SelectorTimeout:   15 * time.Second,
				ScrollDelay:       2 * time.Second,
			},
			A16Z: A16ZConfig{
				JobTypes:    []string{"Software Engineer"},
				PostedSince: "P7D",
			},
			RunTimeout: 90 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:     false,
			ScrapeSpec:  "0 */6 * * *",
			CleanupSpec: "30 3 * * *",
		},
		GRPC: GRPCConfig{
			Enabled: true,
			Port:    9090,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 120,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         600,
		},
	}
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DEBUG"); v == "true" {
		c.Server.Debug = true
	}

	// Database
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Database.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Postgres.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		c.Database.Postgres.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Database.Postgres.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		c.Database.Postgres.Database = v
	}

	// Redis
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}

	// Scraper
	if v := os.Getenv("SCRAPE_SOURCES"); v != "" {
		c.Scraper.Sources = splitList(v)
	}
	if v := os.Getenv("SCRAPER_PROXY_URL"); v != "" {
		c.Scraper.Browser.ProxyURL = v
	}
	if v := os.Getenv("SCRAPER_HEADLESS"); v != "" {
		c.Scraper.Browser.Headless = v != "false"
	}
	if v := os.Getenv("A16Z_USE_API"); v == "true" {
		c.Scraper.A16Z.UseAPI = true
	}

	// Scheduler
	if v := os.Getenv("SCRAPE_SCHEDULE"); v != "" {
		c.Scheduler.Enabled = true
		c.Scheduler.ScrapeSpec = v
	}
	if v := os.Getenv("CLEANUP_SCHEDULE"); v != "" {
		c.Scheduler.CleanupSpec = v
	}

	// gRPC
	if v := os.Getenv("GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.GRPC.Port = port
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

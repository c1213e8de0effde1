package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"gopkg.in/yaml.v3"
)

// Config is read from defaults, then CONFIG_FILE (yaml), then the environment
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	GinMode  string `yaml:"gin_mode"`

	MerchantAPIBaseURL string `yaml:"merchant_api_base_url"`
	PublicBaseURL      string `yaml:"public_base_url"`

	PGBaseURL  string `yaml:"pg_base_url"`
	PGUsername string `yaml:"pg_username"`
	PGPassword string `yaml:"pg_password"`

	PaymentCurrency      string `yaml:"payment_currency"`
	DefaultPaymentMethod string `yaml:"default_payment_method"`
	DefaultPaymentRoute  string `yaml:"default_payment_route"`

	StoreDriver string `yaml:"store_driver"`
	StoreDSN    string `yaml:"store_dsn"`
	RedisAddr   string `yaml:"redis_addr"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	ReviewTopic  string   `yaml:"review_topic"`

	CartInactivityWindow time.Duration `yaml:"cart_inactivity_window"`
	SweepInterval        time.Duration `yaml:"sweep_interval"`
	MenuCacheTTL         time.Duration `yaml:"menu_cache_ttl"`
	HTTPClientTimeout    time.Duration `yaml:"http_client_timeout"`

	VerifyInitialInterval time.Duration `yaml:"verify_initial_interval"`
	VerifyMaxInterval     time.Duration `yaml:"verify_max_interval"`
	VerifyMultiplier      float64       `yaml:"verify_multiplier"`
	VerifyMaxAttempts     uint          `yaml:"verify_max_attempts"`
	VerifyMaxElapsed      time.Duration `yaml:"verify_max_elapsed"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimitRPS       float64  `yaml:"rate_limit_rps"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`

	TraceStdout bool `yaml:"trace_stdout"`
}

func Default() *Config {
	verify := services.DefaultVerifyConfig()
	return &Config{
		Port:                  "8080",
		LogLevel:              "info",
		PaymentCurrency:       "KRW",
		DefaultPaymentMethod:  "CARD",
		DefaultPaymentRoute:   "/payment",
		StoreDriver:           "memory",
		StoreDSN:              "table_order.db",
		ReviewTopic:           "menu-reviews",
		CartInactivityWindow:  services.DefaultInactivityWindow,
		SweepInterval:         time.Minute,
		MenuCacheTTL:          time.Minute,
		HTTPClientTimeout:     15 * time.Second,
		VerifyInitialInterval: verify.InitialInterval,
		VerifyMaxInterval:     verify.MaxInterval,
		VerifyMultiplier:      verify.Multiplier,
		VerifyMaxAttempts:     verify.MaxAttempts,
		VerifyMaxElapsed:      verify.MaxElapsed,
		CORSAllowedOrigins:    []string{"*"},
		RateLimitRPS:          20,
		RateLimitBurst:        40,
	}
}

// Load reads .env when present, the optional yaml file and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("No .env file loaded: %v", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.MerchantAPIBaseURL, "MERCHANT_API_BASE_URL")
	setString(&c.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&c.PGBaseURL, "PG_BASE_URL")
	setString(&c.PGUsername, "PG_USERNAME")
	setString(&c.PGPassword, "PG_PASSWORD")
	setString(&c.PaymentCurrency, "PAYMENT_CURRENCY")
	setString(&c.DefaultPaymentMethod, "DEFAULT_PAYMENT_METHOD")
	setString(&c.DefaultPaymentRoute, "DEFAULT_PAYMENT_ROUTE")
	setString(&c.StoreDriver, "STORE_DRIVER")
	setString(&c.StoreDSN, "STORE_DSN")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.ReviewTopic, "REVIEW_TOPIC")
	setList(&c.KafkaBrokers, "KAFKA_BROKERS")
	setList(&c.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.CartInactivityWindow, "CART_INACTIVITY_WINDOW"},
		{&c.SweepInterval, "SWEEP_INTERVAL"},
		{&c.MenuCacheTTL, "MENU_CACHE_TTL"},
		{&c.HTTPClientTimeout, "HTTP_CLIENT_TIMEOUT"},
		{&c.VerifyInitialInterval, "VERIFY_INITIAL_INTERVAL"},
		{&c.VerifyMaxInterval, "VERIFY_MAX_INTERVAL"},
		{&c.VerifyMaxElapsed, "VERIFY_MAX_ELAPSED"},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("VERIFY_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("VERIFY_MULTIPLIER: %w", err)
		}
		c.VerifyMultiplier = f
	}
	if v := os.Getenv("VERIFY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("VERIFY_MAX_ATTEMPTS: %w", err)
		}
		c.VerifyMaxAttempts = uint(n)
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimitBurst = n
	}
	if v := os.Getenv("TRACE_STDOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRACE_STDOUT: %w", err)
		}
		c.TraceStdout = b
	}
	return nil
}

// Validate checks what the service cannot start without
func (c *Config) Validate() error {
	if c.MerchantAPIBaseURL == "" {
		return fmt.Errorf("MERCHANT_API_BASE_URL is not set")
	}
	if err := services.NewPaymentGatewayClient(c.PaymentGateway(), nil).ValidateConfig(); err != nil {
		return err
	}
	switch c.StoreDriver {
	case "memory":
	case "sqlite", "mysql":
		if c.StoreDSN == "" {
			return fmt.Errorf("STORE_DSN is not set")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is not set")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver)
	}
	if c.CartInactivityWindow <= 0 {
		return fmt.Errorf("CART_INACTIVITY_WINDOW must be positive")
	}
	return nil
}

func (c *Config) PaymentGateway() *services.PaymentGatewayConfig {
	return &services.PaymentGatewayConfig{
		BaseURL:  c.PGBaseURL,
		Username: c.PGUsername,
		Password: c.PGPassword,
		Currency: c.PaymentCurrency,
	}
}

func (c *Config) Verify() services.VerifyConfig {
	verify := services.DefaultVerifyConfig()
	verify.InitialInterval = c.VerifyInitialInterval
	verify.MaxInterval = c.VerifyMaxInterval
	verify.Multiplier = c.VerifyMultiplier
	verify.MaxAttempts = c.VerifyMaxAttempts
	verify.MaxElapsed = c.VerifyMaxElapsed
	return verify
}

func (c *Config) Checkout() services.CheckoutConfig {
	return services.CheckoutConfig{
		PaymentMethod:       c.DefaultPaymentMethod,
		DefaultPaymentRoute: c.DefaultPaymentRoute,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	list := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	*dst = list
}

package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
	Paystack   PaystackConfig   `mapstructure:"paystack"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Donations  DonationsConfig  `mapstructure:"donations"`
	Zakah      ZakahConfig      `mapstructure:"zakah"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer        string        `mapstructure:"issuer"`
}

type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string `mapstructure:"google_redirect_url"`
}

type PaystackConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type DonationsConfig struct {
	// Cadence of the recurring-donation job; the run itself is idempotent per
	// calendar month, so a shorter interval only adds cheap no-op passes.
	RunInterval time.Duration `mapstructure:"run_interval"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

type ZakahConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RateAPIURL      string        `mapstructure:"rate_api_url"`
	MetalAPIURL     string        `mapstructure:"metal_api_url"`
}

// Load reads config.yaml (path without extension resolved by viper) with
// ISHRAKAAT_-prefixed env overrides, e.g. ISHRAKAAT_PAYSTACK_SECRET_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ishrakaat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus env cover local runs.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.access_expiry", 15*time.Minute)
	v.SetDefault("jwt.refresh_expiry", 168*time.Hour)
	v.SetDefault("jwt.issuer", "ishrakaat")

	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.timeout", 30*time.Second)

	v.SetDefault("donations.run_interval", 24*time.Hour)
	v.SetDefault("donations.lock_ttl", 10*time.Minute)

	v.SetDefault("zakah.refresh_interval", 24*time.Hour)
	v.SetDefault("zakah.rate_api_url", "https://api.exchangerate-api.com/v4/latest/USD")
	v.SetDefault("zakah.metal_api_url", "https://api.gold-api.com/price")
}

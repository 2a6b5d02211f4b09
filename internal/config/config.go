package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Session  SessionConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"

	// PublicURL is the externally reachable base URL of the storefront,
	// used to build post-payment redirect targets.
	PublicURL string
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// GatewayConfig holds the Jio Pay merchant credentials. Environment
// selects the UAT or production SDK host.
type GatewayConfig struct {
	Environment   string // "uat" or "prod"
	MerchantID    string
	AggregatorID  string
	SecretKey     string
	PaymentMethod string // gateway identifier stored on orders
}

type SessionConfig struct {
	TTL time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("PUBLIC_URL", "http://localhost:8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JIOPAY_ENV", "uat")
	viper.SetDefault("JIOPAY_PAYMENT_METHOD", "jio_pay")
	viper.SetDefault("SESSION_TTL", "30m")

	ttl, err := time.ParseDuration(viper.GetString("SESSION_TTL"))
	if err != nil {
		ttl = 30 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetInt("APP_PORT"),
			Env:       viper.GetString("APP_ENV"),
			PublicURL: viper.GetString("PUBLIC_URL"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Gateway: GatewayConfig{
			Environment:   viper.GetString("JIOPAY_ENV"),
			MerchantID:    viper.GetString("JIOPAY_MERCHANT_ID"),
			AggregatorID:  viper.GetString("JIOPAY_AGGREGATOR_ID"),
			SecretKey:     viper.GetString("JIOPAY_SECRET_KEY"),
			PaymentMethod: viper.GetString("JIOPAY_PAYMENT_METHOD"),
		},
		Session: SessionConfig{
			TTL: ttl,
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Gateway.MerchantID == "" {
		log.Println("WARNING: JIOPAY_MERCHANT_ID is not set")
	}
	if cfg.Gateway.SecretKey == "" {
		log.Println("WARNING: JIOPAY_SECRET_KEY is not set")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}

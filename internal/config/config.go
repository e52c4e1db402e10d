package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/kelseyhightower/envconfig"
)

const (
	RunModeOnce  = "once"
	RunModeServe = "serve"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"DB_HOST"` specify the environment variable name.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	RunMode     string `envconfig:"RUN_MODE" default:"once" validate:"oneof=once serve"`
	Source      SourceConfig
	WooCommerce WooCommerceConfig
	Transfer    TransferConfig
	HttpServer  ServerConfig
	GrpcServer  GrpcServerConfig
}

// SourceConfig describes the Opencart database the catalog is read from.
type SourceConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"mysql" validate:"oneof=mysql postgres"`
	Host        string `envconfig:"DB_HOST" required:"true" validate:"required"`
	Port        string `envconfig:"DB_PORT" default:"3306"`
	User        string `envconfig:"DB_USER" required:"true" validate:"required"`
	Password    string `envconfig:"DB_PASSWORD"`
	Name        string `envconfig:"DB_NAME" required:"true" validate:"required"`
	TablePrefix string `envconfig:"DB_TABLE_PREFIX" default:"oc_"`
	LanguageID  int64  `envconfig:"DB_LANGUAGE_ID" default:"1" validate:"gt=0"`
	// ImageBaseURL is the storefront origin; images live under <ImageBaseURL>/image/.
	ImageBaseURL string `envconfig:"DB_HOST_DOMAIN" required:"true" validate:"url"`
}

// DSN constructs the data source name for the configured driver.
func (sc *SourceConfig) DSN() string {
	if sc.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			sc.Host, sc.Port, sc.User, sc.Password, sc.Name)
	}
	mc := mysql.NewConfig()
	mc.User = sc.User
	mc.Passwd = sc.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(sc.Host, sc.Port)
	mc.DBName = sc.Name
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// WooCommerceConfig holds the REST API endpoint and credentials.
type WooCommerceConfig struct {
	StoreURL       string        `envconfig:"WC_STORE_URL" required:"true" validate:"url"`
	ConsumerKey    string        `envconfig:"WC_CONSUMER_KEY" required:"true" validate:"required"`
	ConsumerSecret string        `envconfig:"WC_CONSUMER_SECRET" required:"true" validate:"required"`
	RequestTimeout time.Duration `envconfig:"WC_REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
}

// APIBaseURL returns the versioned REST root, e.g. https://shop.example/wp-json/wc/v3.
func (wc *WooCommerceConfig) APIBaseURL() string {
	return strings.TrimSuffix(wc.StoreURL, "/") + "/wp-json/wc/v3"
}

// TransferConfig holds the defaults used by RUN_MODE=once.
type TransferConfig struct {
	Mode        string `envconfig:"TRANSFER_MODE" default:"variable" validate:"oneof=simple variable"`
	CategoryID  int64  `envconfig:"TRANSFER_CATEGORY_ID" default:"66" validate:"gte=0"`
	Limit       int    `envconfig:"TRANSFER_LIMIT" default:"0" validate:"gte=0"`
	Concurrency int    `envconfig:"TRANSFER_CONCURRENCY" default:"1" validate:"min=1,max=32"`
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// Load reads the configuration from environment variables and validates it.
// Callers load any .env file beforehand.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"http_server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	PayOS    PayOSConfig    `mapstructure:"payos"`
	VietQR   VietQRConfig   `mapstructure:"vietqr"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	BCryptCost         int           `mapstructure:"bcrypt_cost"`
}

// PayOSConfig holds the provider-API credentials. ChecksumKey signs outbound
// payment requests and verifies inbound webhooks; it is mandatory for the
// provider path.
type PayOSConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ClientID       string        `mapstructure:"client_id"`
	APIKey         string        `mapstructure:"api_key"`
	ChecksumKey    string        `mapstructure:"checksum_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// VietQRConfig holds the quick-link QR settings. The image endpoint is a
// public stateless renderer, so no API credentials are involved.
// AllowUnsignedWebhook opens the manual confirmation path to deliveries
// without a signature header; this is a deliberate trust boundary and should
// stay off unless the deployment uses a bank-side notifier that cannot sign.
type VietQRConfig struct {
	ReceiverAccountNo    string `mapstructure:"receiver_account_no"`
	ReceiverAccountName  string `mapstructure:"receiver_account_name"`
	BankBIN              string `mapstructure:"bank_bin"`
	TemplateID           string `mapstructure:"template_id"`
	WebhookSecret        string `mapstructure:"webhook_secret"`
	AllowUnsignedWebhook bool   `mapstructure:"allow_unsigned_webhook"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config from environment variables, used for
// container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Security: SecurityConfig{
			AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    7 * 24 * time.Hour,
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		PayOS: PayOSConfig{
			BaseURL:        getEnv("PAYOS_BASE_URL", "https://api-merchant.payos.vn"),
			ClientID:       getEnv("PAYOS_CLIENT_ID", ""),
			APIKey:         getEnv("PAYOS_API_KEY", ""),
			ChecksumKey:    getEnv("PAYOS_CHECKSUM_KEY", ""),
			RequestTimeout: 15 * time.Second,
		},
		VietQR: VietQRConfig{
			ReceiverAccountNo:    getEnv("PAYMENT_RECEIVER_ACCOUNT_NO", ""),
			ReceiverAccountName:  getEnv("PAYMENT_RECEIVER_ACCOUNT_NAME", ""),
			BankBIN:              getEnv("PAYMENT_RECEIVER_BANK_BIN", "970436"),
			TemplateID:           getEnv("PAYMENT_RECEIVER_TEMPLATE_ID", "compact2"),
			WebhookSecret:        getEnv("VIETQR_WEBHOOK_SECRET", ""),
			AllowUnsignedWebhook: getEnvAsBool("VIETQR_ALLOW_UNSIGNED_WEBHOOK", false),
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.PayOS.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payos config: %v", err))
	}

	if err := c.VietQR.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("vietqr config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("access_token_secret is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("refresh_token_secret is required")
	}
	return nil
}

func (c *PayOSConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	// ClientID/APIKey/ChecksumKey may be empty in deployments that only use
	// the quick-link path; the gateway client rejects unsigned requests at
	// call time rather than at startup.
	return nil
}

func (c *VietQRConfig) Validate() error {
	if c.ReceiverAccountNo == "" {
		return errors.New("receiver_account_no is required")
	}
	if c.ReceiverAccountName == "" {
		return errors.New("receiver_account_name is required")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	SecretKey    string
	Debug        bool
	AllowedHosts []string
	DatabaseURL  string
	ServerPort   string
	Timezone     string

	MediaRoot    string
	StaticDirs   []string
	BackupDir    string
	BackupPrefix string

	BackupS3Bucket   string
	BackupS3Region   string
	BackupS3Endpoint string
	AWSAccessKeyID   string
	AWSSecretKey     string

	RedisURL             string
	MercadoPagoToken     string
	MercadoPagoNotifyURL string
	PaymentCurrency      string
	SuperuserUsername    string
	SuperuserPassword    string
	SuperuserEmail       string
}

// devSecretKey signs sessions in debug mode only.
const devSecretKey = "changeme"

var ErrMissingSecretKey = errors.New("config: SECRET_KEY is required when DEBUG is off")

// Load reads the process environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SecretKey:    os.Getenv("SECRET_KEY"),
		Debug:        getEnvBool("DEBUG", false),
		AllowedHosts: splitList(getEnv("ALLOWED_HOSTS", "*")),
		DatabaseURL:  getEnv("DATABASE_URL", "sqlite://clinic.sqlite3"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		Timezone:     getEnv("TIMEZONE", "UTC"),

		MediaRoot:    getEnv("MEDIA_ROOT", "media"),
		StaticDirs:   splitList(getEnv("STATIC_DIRS", "static,images")),
		BackupDir:    getEnv("BACKUP_DIR", "backups"),
		BackupPrefix: getEnv("BACKUP_PREFIX", "clinic"),

		BackupS3Bucket:   os.Getenv("BACKUP_S3_BUCKET"),
		BackupS3Region:   getEnv("BACKUP_S3_REGION", "us-east-1"),
		BackupS3Endpoint: os.Getenv("BACKUP_S3_ENDPOINT"),
		AWSAccessKeyID:   os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:     os.Getenv("AWS_SECRET_ACCESS_KEY"),

		RedisURL:             os.Getenv("REDIS_URL"),
		MercadoPagoToken:     os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		MercadoPagoNotifyURL: os.Getenv("MERCADOPAGO_NOTIFICATION_URL"),
		PaymentCurrency:      getEnv("PAYMENT_CURRENCY", "BRL"),
		SuperuserUsername:    getEnv("SUPERUSER_USERNAME", "admin"),
		SuperuserPassword:    os.Getenv("SUPERUSER_PASSWORD"),
		SuperuserEmail:       os.Getenv("SUPERUSER_EMAIL"),
	}

	if cfg.SecretKey == "" {
		if !cfg.Debug {
			return nil, ErrMissingSecretKey
		}
		cfg.SecretKey = devSecretKey
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvBool accepts "1", "true" and "yes".
func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}

// IsSQLite reports whether DatabaseURL points at a file-based sqlite store.
func (c *Config) IsSQLite() bool {
	return !strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SQLitePath returns the database file path for sqlite URLs
// ("sqlite://path", "file:path" or a bare path).
func (c *Config) SQLitePath() string {
	p := c.DatabaseURL
	p = strings.TrimPrefix(p, "sqlite://")
	p = strings.TrimPrefix(p, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return filepath.Clean(p)
}

// HostAllowed checks a request host (with or without port) against ALLOWED_HOSTS.
func (c *Config) HostAllowed(host string) bool {
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.ToLower(host)
	for _, allowed := range c.AllowedHosts {
		allowed = strings.ToLower(allowed)
		switch {
		case allowed == "*":
			return true
		case strings.HasPrefix(allowed, "."):
			if host == allowed[1:] || strings.HasSuffix(host, allowed) {
				return true
			}
		case host == allowed:
			return true
		}
	}
	return false
}

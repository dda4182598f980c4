package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Render  RenderConfig  `mapstructure:"render"`
	Forward ForwardConfig `mapstructure:"forward"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int    `mapstructure:"port"`
	CookieDomain   string `mapstructure:"cookie_domain"`
	InternalSecret string `mapstructure:"internal_secret"`
}

// AuthConfig describes where the access-key hash lives.
// SecretsFile takes precedence over AccessKeyHash when both are set.
type AuthConfig struct {
	AccessKeyHash string `mapstructure:"access_key_hash"`
	SecretsFile   string `mapstructure:"secrets_file"`
	WarnAfter     int    `mapstructure:"warn_after"`
}

// SessionConfig controls the signed session cookie and the backing store.
type SessionConfig struct {
	Secret  string        `mapstructure:"secret"`
	TTL     time.Duration `mapstructure:"ttl"`
	Backend string        `mapstructure:"backend"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RenderConfig selects the PDF engine and the directory for intermediate files.
type RenderConfig struct {
	Engine  string `mapstructure:"engine"`
	TempDir string `mapstructure:"temp_dir"`
}

// ForwardConfig 描述可选的云存储转发目标。Backend 为空表示不转发。
type ForwardConfig struct {
	Backend string        `mapstructure:"backend"`
	Folder  string        `mapstructure:"folder"`
	Dropbox DropboxConfig `mapstructure:"dropbox"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
}

// DropboxConfig holds the Dropbox access token.
type DropboxConfig struct {
	AccessToken string `mapstructure:"access_token"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"

	RenderEngineChromium = "chromium"
	RenderEngineNative   = "native"

	ForwardBackendNone    = ""
	ForwardBackendDropbox = "dropbox"
	ForwardBackendMinIO   = "minio"
)

// RedisAddr returns host:port for go-redis.
func (r RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a forwarding destination is configured.
func (f ForwardConfig) Enabled() bool {
	return f.Backend != ForwardBackendNone
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("auth.warn_after", 3)
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.backend", SessionBackendRedis)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("render.engine", RenderEngineNative)
	v.SetDefault("render.temp_dir", "temp")
	v.SetDefault("forward.backend", ForwardBackendNone)
	v.SetDefault("forward.folder", "/CVs/")
	v.SetDefault("forward.minio.endpoint", "localhost:9000")
	v.SetDefault("forward.minio.use_ssl", false)
	v.SetDefault("forward.minio.bucket", "cvs")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                         "API_PORT",
		"api.cookie_domain":                "API_COOKIE_DOMAIN",
		"api.internal_secret":              "INTERNAL_API_SECRET",
		"auth.access_key_hash":             "AUTH_ACCESS_KEY_HASH",
		"auth.secrets_file":                "AUTH_SECRETS_FILE",
		"auth.warn_after":                  "AUTH_WARN_AFTER",
		"session.secret":                   "SESSION_SECRET",
		"session.ttl":                      "SESSION_TTL",
		"session.backend":                  "SESSION_BACKEND",
		"redis.host":                       "REDIS_HOST",
		"redis.port":                       "REDIS_PORT",
		"render.engine":                    "RENDER_ENGINE",
		"render.temp_dir":                  "RENDER_TEMP_DIR",
		"forward.backend":                  "FORWARD_BACKEND",
		"forward.folder":                   "FORWARD_FOLDER",
		"forward.dropbox.access_token":     "DROPBOX_ACCESS_TOKEN",
		"forward.minio.endpoint":           "MINIO_ENDPOINT",
		"forward.minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"forward.minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"forward.minio.use_ssl":            "MINIO_USE_SSL",
		"forward.minio.bucket":             "MINIO_BUCKET",
		"forward.minio.region":             "MINIO_REGION",
		"forward.minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func normalize(cfg *Config) {
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	cfg.Render.Engine = strings.ToLower(strings.TrimSpace(cfg.Render.Engine))
	cfg.Forward.Backend = strings.ToLower(strings.TrimSpace(cfg.Forward.Backend))
	cfg.Auth.AccessKeyHash = strings.TrimSpace(cfg.Auth.AccessKeyHash)
	cfg.Auth.SecretsFile = strings.TrimSpace(cfg.Auth.SecretsFile)
}

// validate 只校验启动必需项；访问密钥哈希缺失不在此报错，
// 而是在登录时作为配置错误提示给用户。
func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Auth.WarnAfter <= 0 {
		return errors.New("auth warn_after must be positive")
	}
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return errors.New("session secret is required")
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	switch cfg.Session.Backend {
	case SessionBackendRedis:
		if cfg.Redis.Host == "" {
			return errors.New("redis host is required")
		}
		if cfg.Redis.Port <= 0 {
			return errors.New("redis port must be positive")
		}
	case SessionBackendMemory:
	default:
		return fmt.Errorf("invalid session backend %q", cfg.Session.Backend)
	}
	switch cfg.Render.Engine {
	case RenderEngineChromium, RenderEngineNative:
	default:
		return fmt.Errorf("invalid render engine %q", cfg.Render.Engine)
	}
	if strings.TrimSpace(cfg.Render.TempDir) == "" {
		return errors.New("render temp dir is required")
	}
	switch cfg.Forward.Backend {
	case ForwardBackendNone:
	case ForwardBackendDropbox:
		if strings.TrimSpace(cfg.Forward.Dropbox.AccessToken) == "" {
			return errors.New("dropbox access token is required")
		}
	case ForwardBackendMinIO:
		if cfg.Forward.MinIO.Endpoint == "" {
			return errors.New("minio endpoint is required")
		}
		if cfg.Forward.MinIO.AccessKeyID == "" {
			return errors.New("minio access key id is required")
		}
		if cfg.Forward.MinIO.SecretAccessKey == "" {
			return errors.New("minio secret access key is required")
		}
		if cfg.Forward.MinIO.Bucket == "" {
			return errors.New("minio bucket is required")
		}
	default:
		return fmt.Errorf("invalid forward backend %q", cfg.Forward.Backend)
	}
	return nil
}

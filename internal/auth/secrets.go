package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"cvWizard/internal/config"
)

// ErrSecretNotConfigured 表示没有可用的密钥哈希，属于配置错误而非认证失败。
var ErrSecretNotConfigured = errors.New("authentication configuration not found")

// SecretStore 提供预先配置的访问密钥哈希。
type SecretStore interface {
	StoredHash() (string, error)
}

// StaticSecret 直接使用配置中的哈希值。
type StaticSecret string

func (s StaticSecret) StoredHash() (string, error) {
	hash := strings.TrimSpace(string(s))
	if hash == "" {
		return "", ErrSecretNotConfigured
	}
	return hash, nil
}

// FileSecretStore 每次读取 TOML 密钥文件中的 [auth] access_key_hash，
// 修改文件后无需重启即可生效。
type FileSecretStore struct {
	path string
}

func NewFileSecretStore(path string) *FileSecretStore {
	return &FileSecretStore{path: path}
}

func (s *FileSecretStore) StoredHash() (string, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s missing", ErrSecretNotConfigured, s.path)
		}
		return "", fmt.Errorf("%w: read %s: %v", ErrSecretNotConfigured, s.path, err)
	}

	hash := strings.TrimSpace(v.GetString("auth.access_key_hash"))
	if hash == "" {
		return "", fmt.Errorf("%w: auth.access_key_hash missing in %s", ErrSecretNotConfigured, s.path)
	}
	return hash, nil
}

// NewSecretStore 按配置选择密钥来源，密钥文件优先。
func NewSecretStore(cfg config.AuthConfig) SecretStore {
	if strings.TrimSpace(cfg.SecretsFile) != "" {
		return NewFileSecretStore(cfg.SecretsFile)
	}
	return StaticSecret(cfg.AccessKeyHash)
}

// Package protect 负责对生成的 PDF 加密，并提供解密与校验。
package protect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrProtectionFailed 是加密阶段所有失败的统一外层错误。
var ErrProtectionFailed = errors.New("protection step failed")

const encryptedSuffix = "_encrypted.pdf"

func init() {
	// pdfcpu 默认会在用户目录写配置文件，服务端不需要。
	api.DisableConfigDir()
}

// Password derives the document password from a birth date: DDMMYYYY.
func Password(birth time.Time) string {
	return birth.Format("02012006")
}

// EncryptedPath returns the path Encrypt writes to for the given input.
func EncryptedPath(inPath string) string {
	return strings.TrimSuffix(inPath, filepath.Ext(inPath)) + encryptedSuffix
}

// Protector 使用 pdfcpu 的 AES 加密，用户密码与所有者密码相同。
type Protector struct {
	keyLength int
}

func New() *Protector {
	return &Protector{keyLength: 256}
}

// Encrypt 写出 {base}_encrypted.pdf 并返回其路径。
func (p *Protector) Encrypt(inPath, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrProtectionFailed)
	}

	outPath := EncryptedPath(inPath)
	conf := model.NewAESConfiguration(password, password, p.keyLength)
	if err := api.EncryptFile(inPath, outPath, conf); err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("%w: %v", ErrProtectionFailed, err)
	}
	return outPath, nil
}

// Decrypt writes a decrypted copy of inPath to outPath.
// 未加密的输入直接复制。密码错误或读取失败返回 false。
func (p *Protector) Decrypt(inPath, password, outPath string) bool {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	err := api.DecryptFile(inPath, outPath, conf)
	if err == nil {
		return true
	}
	if isNotEncrypted(err) {
		return copyFile(inPath, outPath) == nil
	}
	return false
}

// Verify reports whether password opens the document at path.
func (p *Protector) Verify(path, password string) bool {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	return api.ValidateFile(path, conf) == nil
}

func isNotEncrypted(err error) bool {
	return strings.Contains(err.Error(), "not encrypted")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

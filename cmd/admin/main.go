package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cvWizard/internal/auth"
	"cvWizard/internal/protect"
)

func usage() {
	fmt.Fprintf(os.Stderr, "用法:\n")
	fmt.Fprintf(os.Stderr, "  admin hash-key [--key KEY] [--bcrypt] [--secrets-file PATH]\n")
	fmt.Fprintf(os.Stderr, "  admin decrypt --in FILE --birth-date YYYY-MM-DD [--out FILE]\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "hash-key":
		hashKey(os.Args[2:])
	case "decrypt":
		decrypt(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

// hashKey 生成访问密钥哈希；未指定 --key 时随机生成密钥。
func hashKey(args []string) {
	fs := flag.NewFlagSet("hash-key", flag.ExitOnError)
	var (
		key         = fs.String("key", "", "访问密钥（可选，默认随机生成）")
		useBcrypt   = fs.Bool("bcrypt", false, "使用 bcrypt 而不是 SHA-256")
		secretsFile = fs.String("secrets-file", "", "写入 TOML 密钥文件（可选）")
	)
	_ = fs.Parse(args)

	k := strings.TrimSpace(*key)
	generated := false
	if k == "" {
		var err error
		k, err = generateRandomKey(24)
		if err != nil {
			log.Fatalf("generate key: %v", err)
		}
		generated = true
	}

	hash := auth.HashKey(k)
	if *useBcrypt {
		var err error
		hash, err = auth.HashKeyBcrypt(k)
		if err != nil {
			log.Fatalf("hash key: %v", err)
		}
	}

	if path := strings.TrimSpace(*secretsFile); path != "" {
		v := viper.New()
		v.Set("auth.access_key_hash", hash)
		if err := v.WriteConfigAs(path); err != nil {
			log.Fatalf("write secrets file: %v", err)
		}
		fmt.Printf("已写入密钥文件: %s\n", path)
	}

	if generated {
		fmt.Printf("访问密钥: %s\n", k)
		fmt.Printf("提示：该密钥仅显示一次，请妥善分发。\n")
	}
	fmt.Printf("AUTH_ACCESS_KEY_HASH=%s\n", hash)
}

// decrypt 用出生日期派生的口令解密生成的 CV，用于排查用户无法打开文件的问题。
func decrypt(args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	var (
		in    = fs.String("in", "", "加密的 PDF（必填）")
		out   = fs.String("out", "", "输出路径（可选，默认 <in>_decrypted.pdf）")
		birth = fs.String("birth-date", "", "出生日期 YYYY-MM-DD（必填）")
	)
	_ = fs.Parse(args)

	if strings.TrimSpace(*in) == "" || strings.TrimSpace(*birth) == "" {
		log.Fatal("missing required flag: --in and --birth-date")
	}
	birthDate, err := time.Parse("2006-01-02", strings.TrimSpace(*birth))
	if err != nil {
		log.Fatalf("parse birth date: %v", err)
	}

	outPath := strings.TrimSpace(*out)
	if outPath == "" {
		outPath = strings.TrimSuffix(*in, ".pdf") + "_decrypted.pdf"
	}

	p := protect.New()
	password := protect.Password(birthDate)
	if !p.Verify(*in, password) {
		log.Fatalf("password derived from %s does not open %s", *birth, *in)
	}
	if !p.Decrypt(*in, password, outPath) {
		log.Fatalf("decrypt %s failed", *in)
	}
	fmt.Printf("已解密: %s\n", outPath)
}

func generateRandomKey(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

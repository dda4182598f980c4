package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cvWizard/internal/config"
)

const (
	pdfContentType = "application/pdf"
	// 与 Dropbox 临时链接的有效期保持一致。
	temporaryLinkTTL = 4 * time.Hour
)

// MinIO 把 Bucket 中的 key 前缀当作目录使用。
type MinIO struct {
	client           *minio.Client
	bucketName       string
	region           string
	autoCreateBucket bool
}

// NewMinIO 初始化 MinIO 客户端。不会访问网络，连通性由 TestConnection 检查。
func NewMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinIO{
		client:           client,
		bucketName:       cfg.Bucket,
		region:           cfg.Region,
		autoCreateBucket: cfg.AutoCreateBucket,
	}, nil
}

func (m *MinIO) Name() string { return config.ForwardBackendMinIO }

// TestConnection 确认 Bucket 存在，必要时自动创建。
func (m *MinIO) TestConnection(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil && !IsNoSuchBucket(err) {
		return fmt.Errorf("check bucket %q: %w", m.bucketName, err)
	}
	if exists {
		return nil
	}
	if !m.autoCreateBucket {
		return fmt.Errorf("bucket %q does not exist (auto create disabled)", m.bucketName)
	}
	if err := m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("make bucket %q: %w", m.bucketName, err)
	}
	return nil
}

// Upload 上传本地文件；大文件由 minio-go 自动分片。
func (m *MinIO) Upload(ctx context.Context, localPath, folder, filename string) (string, error) {
	remote := JoinPath(folder, filename)
	key := objectKey(remote)
	opts := minio.PutObjectOptions{ContentType: pdfContentType}
	if _, err := m.client.FPutObject(ctx, m.bucketName, key, localPath, opts); err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return remote, nil
}

// CreateFolder 写入一个以 "/" 结尾的空对象作为目录标记，重复写入等价于已存在。
func (m *MinIO) CreateFolder(ctx context.Context, folder string) error {
	key := objectKey(NormalizeFolder(folder))
	if key == "" {
		return nil
	}
	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("create folder marker %q: %w", key, err)
	}
	return nil
}

// ListFiles 列出目录下一层的文件名，不含子目录。
func (m *MinIO) ListFiles(ctx context.Context, folder string) ([]string, error) {
	prefix := objectKey(NormalizeFolder(folder))
	objCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	names := make([]string, 0)
	for object := range objCh {
		if object.Err != nil {
			if IsNoSuchBucket(object.Err) {
				return names, nil
			}
			return nil, fmt.Errorf("list objects under %q: %w", prefix, object.Err)
		}
		if object.Key == prefix || strings.HasSuffix(object.Key, "/") {
			continue
		}
		names = append(names, path.Base(object.Key))
	}
	return names, nil
}

// TemporaryLink 生成限时下载链接。对象不存在时返回 ErrFileNotFound。
func (m *MinIO) TemporaryLink(ctx context.Context, remotePath string) (string, error) {
	key := objectKey(remotePath)
	if _, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{}); err != nil {
		if IsNoSuchKey(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, remotePath)
		}
		return "", fmt.Errorf("stat object %q: %w", key, err)
	}

	presignedURL, err := m.client.PresignedGetObject(ctx, m.bucketName, key, temporaryLinkTTL, nil)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", key, err)
	}
	return presignedURL.String(), nil
}

// objectKey 把 "/CVs/a.pdf" 形式的路径转换为对象 key "CVs/a.pdf"。
func objectKey(remotePath string) string {
	return strings.TrimLeft(remotePath, "/")
}

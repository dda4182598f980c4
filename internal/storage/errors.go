package storage

import (
	"errors"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断错误是否明确表示对象不存在（S3/MinIO: NoSuchKey/NotFound）。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch strings.ToLower(strings.TrimSpace(minioErr.Code)) {
		case "nosuchkey", "notfound":
			return true
		}
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist")
}

// IsNoSuchBucket 判断错误是否明确表示 Bucket 不存在（S3/MinIO: NoSuchBucket）。
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		if strings.EqualFold(strings.TrimSpace(minioErr.Code), "nosuchbucket") {
			return true
		}
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchbucket") ||
		strings.Contains(lower, "specified bucket does not exist")
}

// isFolderConflict 判断 Dropbox 创建目录失败是否因为目录已存在。
func isFolderConflict(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *files.CreateFolderV2APIError
	if errors.As(err, &apiErr) && apiErr.EndpointError != nil && apiErr.EndpointError.Path != nil &&
		apiErr.EndpointError.Path.Tag == files.WriteErrorConflict {
		return true
	}

	// SDK 按值返回错误时只能依赖 error_summary。
	return strings.Contains(err.Error(), "path/conflict")
}

// isPathNotFound 判断 Dropbox 路径类错误是否表示不存在。
func isPathNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not_found")
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"

	"cvWizard/internal/config"
)

const (
	// 单次上传接口的大小上限，超过后走分片会话。
	defaultUploadThreshold = 150 << 20
	defaultChunkSize       = 4 << 20
)

// dropboxFiles 是本包用到的 files.Client 子集，便于测试替换。
type dropboxFiles interface {
	Upload(arg *files.UploadArg, content io.Reader) (*files.FileMetadata, error)
	UploadSessionStart(arg *files.UploadSessionStartArg, content io.Reader) (*files.UploadSessionStartResult, error)
	UploadSessionAppendV2(arg *files.UploadSessionAppendArg, content io.Reader) error
	UploadSessionFinish(arg *files.UploadSessionFinishArg, content io.Reader) (*files.FileMetadata, error)
	CreateFolderV2(arg *files.CreateFolderArg) (*files.CreateFolderResult, error)
	ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error)
	ListFolderContinue(arg *files.ListFolderContinueArg) (*files.ListFolderResult, error)
	GetTemporaryLink(arg *files.GetTemporaryLinkArg) (*files.GetTemporaryLinkResult, error)
}

type dropboxAccounts interface {
	GetCurrentAccount() (*users.FullAccount, error)
}

// Dropbox 通过 access token 访问用户的 Dropbox。
type Dropbox struct {
	files    dropboxFiles
	accounts dropboxAccounts

	uploadThreshold int64
	chunkSize       int64
}

// NewDropbox 构造 Dropbox 客户端。token 为空视为配置错误。
func NewDropbox(cfg config.DropboxConfig) (*Dropbox, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errors.New("dropbox access token is required")
	}
	dbxCfg := dropbox.Config{
		Token:    token,
		LogLevel: dropbox.LogOff,
	}
	return newDropbox(files.New(dbxCfg), users.New(dbxCfg)), nil
}

func newDropbox(f dropboxFiles, a dropboxAccounts) *Dropbox {
	return &Dropbox{
		files:           f,
		accounts:        a,
		uploadThreshold: defaultUploadThreshold,
		chunkSize:       defaultChunkSize,
	}
}

func (d *Dropbox) Name() string { return config.ForwardBackendDropbox }

// TestConnection 读取当前账号信息以验证 token。
func (d *Dropbox) TestConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.accounts.GetCurrentAccount(); err != nil {
		return fmt.Errorf("dropbox get current account: %w", err)
	}
	return nil
}

// Upload 上传本地文件，同名文件覆盖。超过阈值时按 chunkSize 分片上传。
func (d *Dropbox) Upload(ctx context.Context, localPath, folder, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload source: %w", err)
	}

	remote := JoinPath(folder, filename)
	var meta *files.FileMetadata
	if info.Size() <= d.uploadThreshold {
		meta, err = d.uploadSingle(f, remote)
	} else {
		meta, err = d.uploadChunked(ctx, f, info.Size(), remote)
	}
	if err != nil {
		return "", err
	}

	if meta != nil && meta.PathDisplay != "" {
		return meta.PathDisplay, nil
	}
	return remote, nil
}

func (d *Dropbox) uploadSingle(content io.Reader, remote string) (*files.FileMetadata, error) {
	arg := files.NewUploadArg(remote)
	arg.Mode = overwriteMode()
	arg.Autorename = true

	meta, err := d.files.Upload(arg, content)
	if err != nil {
		return nil, fmt.Errorf("dropbox upload %q: %w", remote, err)
	}
	return meta, nil
}

// uploadChunked 先发首片开启会话，中间分片追加，最后一片随 Finish 提交。
func (d *Dropbox) uploadChunked(ctx context.Context, content io.Reader, size int64, remote string) (*files.FileMetadata, error) {
	start, err := d.files.UploadSessionStart(files.NewUploadSessionStartArg(), io.LimitReader(content, d.chunkSize))
	if err != nil {
		return nil, fmt.Errorf("dropbox upload session start: %w", err)
	}

	offset := d.chunkSize
	for size-offset > d.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cursor := files.NewUploadSessionCursor(start.SessionId, uint64(offset))
		if err := d.files.UploadSessionAppendV2(files.NewUploadSessionAppendArg(cursor), io.LimitReader(content, d.chunkSize)); err != nil {
			return nil, fmt.Errorf("dropbox upload session append at %d: %w", offset, err)
		}
		offset += d.chunkSize
	}

	commit := files.NewCommitInfo(remote)
	commit.Mode = overwriteMode()
	commit.Autorename = true
	cursor := files.NewUploadSessionCursor(start.SessionId, uint64(offset))
	meta, err := d.files.UploadSessionFinish(files.NewUploadSessionFinishArg(cursor, commit), io.LimitReader(content, size-offset))
	if err != nil {
		return nil, fmt.Errorf("dropbox upload session finish: %w", err)
	}
	return meta, nil
}

// CreateFolder 创建目录，已存在视为成功。
func (d *Dropbox) CreateFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := dropboxFolderPath(folder)
	if p == "" {
		return nil
	}
	if _, err := d.files.CreateFolderV2(files.NewCreateFolderArg(p)); err != nil {
		if isFolderConflict(err) {
			return nil
		}
		return fmt.Errorf("dropbox create folder %q: %w", p, err)
	}
	return nil
}

// ListFiles 返回目录下的文件名，忽略子目录。
func (d *Dropbox) ListFiles(ctx context.Context, folder string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := dropboxFolderPath(folder)
	res, err := d.files.ListFolder(files.NewListFolderArg(p))
	if err != nil {
		return nil, fmt.Errorf("dropbox list folder %q: %w", p, err)
	}

	names := make([]string, 0, len(res.Entries))
	for {
		for _, entry := range res.Entries {
			if meta, ok := entry.(*files.FileMetadata); ok {
				names = append(names, meta.Name)
			}
		}
		if !res.HasMore {
			return names, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err = d.files.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, fmt.Errorf("dropbox list folder continue %q: %w", p, err)
		}
	}
}

// TemporaryLink 返回约 4 小时有效的直链。
func (d *Dropbox) TemporaryLink(ctx context.Context, remotePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := d.files.GetTemporaryLink(files.NewGetTemporaryLinkArg(remotePath))
	if err != nil {
		if isPathNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, remotePath)
		}
		return "", fmt.Errorf("dropbox temporary link %q: %w", remotePath, err)
	}
	return res.Link, nil
}

func overwriteMode() *files.WriteMode {
	return &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
}

// dropboxFolderPath 把规范化目录转换为 Dropbox API 路径：根目录为空串，其余不带结尾 "/"。
func dropboxFolderPath(folder string) string {
	return strings.TrimSuffix(NormalizeFolder(folder), "/")
}

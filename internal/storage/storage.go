// Package storage 提供媒体存储的多种实现
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"social-backend/config"
	"social-backend/internal/util"

	"github.com/google/uuid"
)

// MediaStore 媒体存储。Upload 返回可公开访问的 URL，
// Destroy 接收 URL 最后一段去掉扩展名后的凭据
type MediaStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Destroy(ctx context.Context, token string) error
}

// New 根据配置选择媒体存储实现
func New(ctx context.Context, cfg config.Config) (MediaStore, error) {
	switch cfg.MediaDriver {
	case "local":
		return NewLocalStorage(cfg.LocalStoragePath, strings.TrimRight(cfg.BackendURL, "/")+"/uploads")
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSProjectID, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	case "cloudinary":
		return NewCloudinaryClient(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}
	return nil, fmt.Errorf("不支持的媒体存储: %s", cfg.MediaDriver)
}

// NewObjectName 生成随机对象名，扩展名保留
func NewObjectName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// UploadDataURL 解码 data URL 后上传
func UploadDataURL(ctx context.Context, store MediaStore, dataURL string) (string, error) {
	r, ext, err := util.DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return store.Upload(ctx, NewObjectName(ext), r)
}

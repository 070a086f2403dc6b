package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"social-backend/internal/util"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryClient 把图片托管到 Cloudinary，public id 即删除凭据
type CloudinaryClient struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryClient(cloudName, apiKey, apiSecret string) (*CloudinaryClient, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryClient{cld: cld}, nil
}

func (c *CloudinaryClient) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	publicID := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{PublicID: publicID})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *CloudinaryClient) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: token})
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return errors.New(resp.Error.Message)
	}
	util.Logger.Debug("Cloudinary 资源已删除", zap.String("public_id", token), zap.String("result", resp.Result))
	return nil
}

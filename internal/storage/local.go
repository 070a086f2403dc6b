package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"social-backend/internal/util"

	"go.uber.org/zap"
)

// LocalStorage 把文件写到本地目录，通过 /uploads 静态路由访问
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.Base(name))
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	util.Logger.Info("文件上传成功", zap.String("fullPath", fullPath))
	return s.baseURL + "/" + filepath.Base(name), nil
}

func (s *LocalStorage) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(s.basePath, filepath.Base(token)+".*"))
	if err != nil {
		return err
	}
	exact := filepath.Join(s.basePath, filepath.Base(token))
	if _, err := os.Stat(exact); err == nil {
		matches = append(matches, exact)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("删除文件失败: %w", err)
		}
	}
	return nil
}

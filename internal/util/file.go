package util

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidDataURL 表示图片字段不是合法的 data URL
var ErrInvalidDataURL = errors.New("invalid data url")

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeDataURL 解析 "data:image/png;base64,..." 形式的图片，返回内容和扩展名
func DecodeDataURL(dataURL string) (io.Reader, string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, "", ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", ErrInvalidDataURL
	}
	ext, ok := imageExtensions[strings.TrimSuffix(meta, ";base64")]
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURL
	}
	return bytes.NewReader(raw), ext, nil
}

// MediaToken 取 URL 最后一段路径并去掉扩展名，作为媒体删除凭据
func MediaToken(mediaURL string) string {
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

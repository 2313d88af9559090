package pkg

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	PublicBaseURL   string // 为空时使用 storage.googleapis.com
	CredentialsFile string
	EmulatorHost    string
}

// GCSUploader 头像对象存储，写入后返回公开地址
type GCSUploader struct {
	client *storage.Client
	cfg    GCSConfig
}

func NewGCSUploader(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var opts []option.ClientOption
	switch {
	case cfg.EmulatorHost != "":
		opts = append(opts, option.WithoutAuthentication(), option.WithEndpoint(strings.TrimRight(cfg.EmulatorHost, "/")+"/storage/v1/"))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSUploader{client: client, cfg: cfg}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := u.client.Bucket(u.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", key, err)
	}
	return PublicObjectURL(u.cfg.PublicBaseURL, u.cfg.Bucket, key), nil
}

func (u *GCSUploader) Close() error {
	if u == nil || u.client == nil {
		return nil
	}
	return u.client.Close()
}

func PublicObjectURL(base, bucket, key string) string {
	if base == "" {
		base = "https://storage.googleapis.com/" + bucket
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

package service

import (
	"bytes"
	"context"
	"course_sync/internal/config"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 证书归档的对象存储
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorageProvider 写入本地目录
type LocalStorageProvider struct {
	Config *config.ArchiveConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.url(key), nil
}

// Delete 文件不存在时视为成功
func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(p.Config.LocalPath, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (p *LocalStorageProvider) url(key string) string {
	return "file://" + filepath.ToSlash(filepath.Join(p.Config.LocalPath, filepath.FromSlash(key)))
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.ArchiveConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.ArchiveConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.url(key), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) url(key string) string {
	return "/" + p.Config.MinioBucket + "/" + key
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.ArchiveConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.ArchiveConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return p.url(key), nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key, oss.WithContext(ctx))
}

func (p *OSSStorageProvider) url(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, key)
}

// StorageService 证书归档，对象键为 certificates/<user>/<courseId>.json
type StorageService struct {
	Provider StorageProvider
}

// NewStorageService 远端存储初始化失败时回退到本地目录
func NewStorageService(cfg *config.ArchiveConfig) *StorageService {
	var provider StorageProvider
	switch cfg.Type {
	case util.ArchiveMinio:
		p, err := NewMinioStorageProvider(cfg)
		if err != nil {
			logger.Log.Warn("MinIO unavailable, archiving locally", zap.Error(err))
		} else {
			provider = p
		}
	case util.ArchiveOSS:
		p, err := NewOSSStorageProvider(cfg)
		if err != nil {
			logger.Log.Warn("OSS unavailable, archiving locally", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: cfg}
	}
	return &StorageService{Provider: provider}
}

func CertificateKey(user, courseID string) string {
	return fmt.Sprintf("certificates/%s/%s.json", user, courseID)
}

func (s *StorageService) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.Provider.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}

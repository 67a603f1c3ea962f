package artifact

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror copies finished prototype bundles to secondary storage. The
// prototype builder fires it after a successful build; failures are logged
// there and never fail the build.
type Mirror interface {
	MirrorDir(ctx context.Context, prefix, dir string) error
}

// NopMirror is the default when no S3 endpoint is configured.
type NopMirror struct{}

func (NopMirror) MirrorDir(context.Context, string, string) error { return nil }

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Mirror uploads bundle trees to an S3-compatible bucket.
type S3Mirror struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Mirror(cfg S3Config) (*S3Mirror, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Mirror{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (m *S3Mirror) ensureBucket(ctx context.Context) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("mirror is nil")
	}
	m.initOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucketName)
		if err != nil {
			m.initErr = err
			return
		}
		if exists {
			return
		}
		m.initErr = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{Region: m.region})
	})
	return m.initErr
}

// MirrorDir uploads every regular file under dir to <prefix>/<relative path>.
func (m *S3Mirror) MirrorDir(ctx context.Context, prefix, dir string) error {
	if m == nil {
		return fmt.Errorf("mirror is nil")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if err := m.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := prefix + "/" + filepath.ToSlash(rel)
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		_, err = m.client.FPutObject(ctx, m.bucketName, key, path, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		return nil
	})
}

package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignExpiry is the lifetime of URLs handed out when no public base URL is
// configured. S3 caps presigned URLs at seven days.
const presignExpiry = 7 * 24 * time.Hour

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL, when set, is joined with the object key instead of
	// presigning, e.g. a CDN in front of a public-read bucket.
	PublicBaseURL string
}

type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	publicBase string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
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
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if publicBase != "" {
		if _, err := url.Parse(publicBase); err != nil {
			return nil, fmt.Errorf("invalid public base url: %w", err)
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
		publicBase: publicBase,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	key = normalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("evidence %s is empty", key)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.objectURL(ctx, key)
}

func (s *S3Store) Get(ctx context.Context, key string) (Object, error) {
	if s == nil {
		return Object{}, fmt.Errorf("store is nil")
	}
	key = normalizeKey(key)
	if key == "" {
		return Object{}, fmt.Errorf("key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Object{}, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return Object{}, ErrNotFound
		}
		return Object{}, err
	}
	contentType := ""
	if info, err := obj.Stat(); err == nil {
		contentType = info.ContentType
	}
	return Object{Data: data, ContentType: contentType}, nil
}

func (s *S3Store) objectURL(ctx context.Context, key string) (string, error) {
	if s.publicBase != "" {
		return s.publicBase + "/" + key, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

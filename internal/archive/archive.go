// Package archive copies export payloads and pre-delete backup snapshots to
// S3-compatible object storage. The in-store archive stays authoritative;
// this is an offsite convenience copy, so callers treat every failure here
// as non-fatal.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is the slice of the S3 API the uploader needs, as an interface
// for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration. A non-empty Passphrase
// enables client-side encryption of every uploaded object.
type Config struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Passphrase string
}

// Enabled reports whether the configuration is complete enough to upload.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Uploader writes objects to one bucket, optionally encrypted.
type Uploader struct {
	cfg    Config
	client s3Client
}

// New constructs an Uploader with a real S3 client. Pass a custom Endpoint
// for S3-compatible providers (MinIO, R2, ...).
func New(cfg Config) *Uploader {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Uploader{cfg: cfg, client: s3.New(opts)}
}

// NewWithClient constructs an Uploader around an existing client.
// Intended for tests.
func NewWithClient(cfg Config, client s3Client) *Uploader {
	return &Uploader{cfg: cfg, client: client}
}

// Upload writes body under key. With a passphrase configured the body is
// AES-256-GCM encrypted first and the key gains an ".enc" suffix.
func (u *Uploader) Upload(ctx context.Context, key string, body []byte) error {
	if u.cfg.Passphrase != "" {
		enc, err := Encrypt(body, u.cfg.Passphrase)
		if err != nil {
			return fmt.Errorf("archive.Uploader.Upload: %w", err)
		}
		body = enc
		key += ".enc"
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("archive.Uploader.Upload: put %s: %w", key, err)
	}
	return nil
}

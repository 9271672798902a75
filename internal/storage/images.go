// Package storage stores uploaded cover and body images and returns their public URL.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("file exceeds the upload limit")
)

// ImageStore saves an image and returns the URL it is served from.
type ImageStore interface {
	SaveImage(ctx context.Context, name string, r io.Reader) (string, error)
}

// Uploader is the repository upload-image endpoint of a collection.
type Uploader interface {
	UploadImage(ctx context.Context, name string, r io.Reader) (string, error)
}

// readImage buffers at most limit bytes and checks the content is an image.
func readImage(r io.Reader, limit int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	return data, contentType, nil
}

// RepositoryImages forwards uploads to the Content Repository.
type RepositoryImages struct {
	uploader Uploader
	maxSize  int64
}

func NewRepositoryImages(u Uploader, maxSize int64) *RepositoryImages {
	return &RepositoryImages{uploader: u, maxSize: maxSize}
}

func (s *RepositoryImages) SaveImage(ctx context.Context, name string, r io.Reader) (string, error) {
	data, _, err := readImage(r, s.maxSize)
	if err != nil {
		return "", err
	}
	return s.uploader.UploadImage(ctx, path.Base(name), bytes.NewReader(data))
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type R2Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicURL is the base the bucket is served from.
	PublicURL string
	MaxSize   int64
}

// R2Images writes uploads to a Cloudflare R2 (S3-compatible) bucket under a
// dated prefix, images/YYYY/MM/DD/<uuid>-<name>.
type R2Images struct {
	client objectPutter
	cfg    R2Config
	now    func() time.Time
}

func NewR2Images(ctx context.Context, cfg R2Config) (*R2Images, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return newR2Images(client, cfg), nil
}

func newR2Images(client objectPutter, cfg R2Config) *R2Images {
	return &R2Images{client: client, cfg: cfg, now: time.Now}
}

func (s *R2Images) SaveImage(ctx context.Context, name string, r io.Reader) (string, error) {
	data, contentType, err := readImage(r, s.cfg.MaxSize)
	if err != nil {
		return "", err
	}

	key := path.Join("images", s.now().UTC().Format("2006/01/02"), uuid.NewString()+"-"+sanitizeName(name))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store image in R2: %w", err)
	}

	return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key, nil
}

func sanitizeName(name string) string {
	name = strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

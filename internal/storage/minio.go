package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"lostfound/internal/config"
)

// ImageStore keeps item photos. Keys are opaque object names returned by Upload.
type ImageStore interface {
	Upload(ctx context.Context, itemID string, img *ProcessedImage) (key string, imageURL string, err error)
	Delete(ctx context.Context, key string) error
}

type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOStore connects to MinIO and creates the bucket when it is missing.
func NewMinIOStore(ctx context.Context, cfg config.MinIO) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.BucketName, err)
		}
	}

	return &MinIOStore{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: publicBaseURL(cfg),
	}, nil
}

// publicBaseURL is the prefix clients use to fetch objects of the bucket.
func publicBaseURL(cfg config.MinIO) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: cfg.Endpoint, Path: "/" + cfg.BucketName}).String()
}

func objectName(itemID string, now time.Time, ext string) string {
	return fmt.Sprintf("items/%s/%d/%02d/%s%s",
		itemID,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		ext)
}

func (m *MinIOStore) Upload(ctx context.Context, itemID string, img *ProcessedImage) (string, string, error) {
	now := time.Now().UTC()
	key := objectName(itemID, now, img.Ext())

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{
			ContentType: img.MIME,
			UserMetadata: map[string]string{
				"original-filename": img.FileName,
				"item-id":           itemID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("uploading to minio: %w", err)
	}

	return key, m.publicURL + "/" + key, nil
}

func (m *MinIOStore) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{
		GovernanceBypass: true,
	})
	if err != nil {
		return fmt.Errorf("removing %s from minio: %w", key, err)
	}
	return nil
}

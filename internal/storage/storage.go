package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	appconfig "github.com/Lwan2205/storefront/internal/config"
)

// ErrNotFound is returned by Open for unknown keys.
var ErrNotFound = errors.New("storage: object not found")

// PutInput describes an object being staged.
type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

// PutResult identifies a staged object.
type PutResult struct {
	Key string
	URL string
}

// Storage stages draft images until they are submitted with the product.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// ListBefore returns the keys of objects last written before cutoff.
	ListBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// New builds the Storage selected by cfg.Driver.
func New(ctx context.Context, cfg *appconfig.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir, "/uploads"), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Region: cfg.S3Region,
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Driver)
	}
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ""
	}
}

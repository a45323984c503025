// Package repository persists vault files in a gocloud.dev/blob bucket.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	apperrors "github.com/allisson/otpvault/internal/errors"
	vaultDomain "github.com/allisson/otpvault/internal/vault/domain"
)

// BlobVaultRepository stores a single vault file as one object in a bucket.
//
// Supported bucket URLs include file:///path?create_dir=1 for local storage and
// mem:// for tests. Writes are atomic: readers never see a partial file.
type BlobVaultRepository struct {
	bucket *blob.Bucket
	key    string
}

// NewBlobVaultRepository creates a repository storing the vault under key in bucket.
func NewBlobVaultRepository(bucket *blob.Bucket, key string) *BlobVaultRepository {
	return &BlobVaultRepository{bucket: bucket, key: key}
}

// OpenBlobVaultRepository opens the bucket at bucketURL.
func OpenBlobVaultRepository(ctx context.Context, bucketURL, key string) (*BlobVaultRepository, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open vault bucket: %w", apperrors.ErrUnavailable, err)
	}
	return NewBlobVaultRepository(bucket, key), nil
}

// Load reads and parses the vault file. Returns ErrVaultNotFound if none exists.
func (r *BlobVaultRepository) Load(ctx context.Context) (*vaultDomain.VaultFile, error) {
	data, err := r.bucket.ReadAll(ctx, r.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, vaultDomain.ErrVaultNotFound
		}
		return nil, fmt.Errorf("%w: failed to read vault: %w", apperrors.ErrUnavailable, err)
	}

	var file vaultDomain.VaultFile
	if err := json.Unmarshal(data, &file); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", vaultDomain.ErrVault, err)
	}
	return &file, nil
}

// Save writes the vault file, replacing any previous one.
func (r *BlobVaultRepository) Save(ctx context.Context, file *vaultDomain.VaultFile) error {
	data, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return err
	}

	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := r.bucket.WriteAll(ctx, r.key, data, opts); err != nil {
		return fmt.Errorf("%w: failed to write vault: %w", apperrors.ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether a vault file is stored.
func (r *BlobVaultRepository) Exists(ctx context.Context) (bool, error) {
	ok, err := r.bucket.Exists(ctx, r.key)
	if err != nil {
		return false, fmt.Errorf("%w: failed to stat vault: %w", apperrors.ErrUnavailable, err)
	}
	return ok, nil
}

// Close releases the bucket.
func (r *BlobVaultRepository) Close() error {
	return r.bucket.Close()
}

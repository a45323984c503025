package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	apperrors "github.com/allisson/otpvault/internal/errors"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// EntriesBucket is the bbolt bucket holding key store entries keyed by alias.
var EntriesBucket = []byte("keystore_entries")

// boltEntry is the JSON form of an entry inside the bucket.
type boltEntry struct {
	WrappedKey     []byte    `json:"wrapped_key"`
	HardwareBacked bool      `json:"hardware_backed"`
	AuthRequired   bool      `json:"auth_required"`
	EnrollmentID   string    `json:"enrollment_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// BoltEntryRepository stores key store entries in a local bbolt file.
// Every method runs in its own bbolt transaction.
type BoltEntryRepository struct {
	db *bbolt.DB
}

// OpenBoltEntryRepository opens (or creates) the bbolt file at path.
// The file lock is waited on for at most timeout.
func OpenBoltEntryRepository(path string, timeout time.Duration) (*BoltEntryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(EntriesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create keystore bucket: %w", err)
	}

	return &BoltEntryRepository{db: db}, nil
}

// Close releases the bbolt file lock.
func (b *BoltEntryRepository) Close() error {
	return b.db.Close()
}

// Create inserts a new entry. A duplicate alias yields ErrEntryAlreadyExists.
func (b *BoltEntryRepository) Create(ctx context.Context, entry *keystoreDomain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(boltEntry{
		WrappedKey:     entry.WrappedKey,
		HardwareBacked: entry.HardwareBacked,
		AuthRequired:   entry.AuthRequired,
		EnrollmentID:   entry.EnrollmentID,
		CreatedAt:      entry.CreatedAt,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal keystore entry")
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(EntriesBucket)
		if bucket.Get([]byte(entry.Alias)) != nil {
			return keystoreDomain.ErrEntryAlreadyExists
		}
		if err := bucket.Put([]byte(entry.Alias), data); err != nil {
			return apperrors.Wrap(err, "failed to create keystore entry")
		}
		return nil
	})
}

// Get retrieves an entry by alias.
func (b *BoltEntryRepository) Get(ctx context.Context, alias string) (*keystoreDomain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *keystoreDomain.Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(EntriesBucket).Get([]byte(alias))
		if data == nil {
			return keystoreDomain.ErrEntryNotFound
		}

		// data is only valid inside the transaction; Unmarshal copies it.
		var stored boltEntry
		if err := json.Unmarshal(data, &stored); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal keystore entry")
		}
		entry = &keystoreDomain.Entry{
			Alias:          alias,
			WrappedKey:     stored.WrappedKey,
			HardwareBacked: stored.HardwareBacked,
			AuthRequired:   stored.AuthRequired,
			EnrollmentID:   stored.EnrollmentID,
			CreatedAt:      stored.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes the entry for alias, if any.
func (b *BoltEntryRepository) Delete(ctx context.Context, alias string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(EntriesBucket).Delete([]byte(alias)); err != nil {
			return apperrors.Wrap(err, "failed to delete keystore entry")
		}
		return nil
	})
}

// ListAliases returns all aliases ordered by creation time.
func (b *BoltEntryRepository) ListAliases(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type aliasTime struct {
		alias     string
		createdAt time.Time
	}
	var found []aliasTime

	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(EntriesBucket).ForEach(func(k, v []byte) error {
			var stored boltEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return apperrors.Wrap(err, "failed to unmarshal keystore entry")
			}
			found = append(found, aliasTime{alias: string(k), createdAt: stored.CreatedAt})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].createdAt.Before(found[j].createdAt)
	})

	aliases := make([]string, 0, len(found))
	for _, f := range found {
		aliases = append(aliases, f.alias)
	}
	return aliases, nil
}

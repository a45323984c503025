// Package repository implements persistence for key store entries.
//
// Entries hold wrapped key material only, never plaintext keys. Four backends
// are provided:
//   - PostgreSQL and MySQL, transaction-aware via database.GetTx()
//   - bbolt, a single local file
//   - memory, for tests and ephemeral sessions
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/allisson/otpvault/internal/database"
	apperrors "github.com/allisson/otpvault/internal/errors"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// postgresUniqueViolation is the SQLSTATE for unique_violation.
const postgresUniqueViolation = "23505"

// PostgreSQLEntryRepository implements key store entry persistence for PostgreSQL.
//
// Database schema requirements:
//   - alias: VARCHAR(255) PRIMARY KEY
//   - wrapped_key: BYTEA
//   - hardware_backed, auth_required: BOOLEAN
//   - enrollment_id: VARCHAR(255)
//   - created_at: TIMESTAMP WITH TIME ZONE
type PostgreSQLEntryRepository struct {
	db *sql.DB
}

// NewPostgreSQLEntryRepository creates a new PostgreSQL entry repository.
func NewPostgreSQLEntryRepository(db *sql.DB) *PostgreSQLEntryRepository {
	return &PostgreSQLEntryRepository{db: db}
}

// Create inserts a new entry. A duplicate alias yields ErrEntryAlreadyExists.
func (p *PostgreSQLEntryRepository) Create(ctx context.Context, entry *keystoreDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO keystore_entries (alias, wrapped_key, hardware_backed, auth_required, enrollment_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.Alias,
		entry.WrappedKey,
		entry.HardwareBacked,
		entry.AuthRequired,
		entry.EnrollmentID,
		entry.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == postgresUniqueViolation {
			return keystoreDomain.ErrEntryAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create keystore entry")
	}
	return nil
}

// Get retrieves an entry by alias.
func (p *PostgreSQLEntryRepository) Get(ctx context.Context, alias string) (*keystoreDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT alias, wrapped_key, hardware_backed, auth_required, enrollment_id, created_at
			  FROM keystore_entries
			  WHERE alias = $1`

	var entry keystoreDomain.Entry
	err := querier.QueryRowContext(ctx, query, alias).Scan(
		&entry.Alias,
		&entry.WrappedKey,
		&entry.HardwareBacked,
		&entry.AuthRequired,
		&entry.EnrollmentID,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, keystoreDomain.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get keystore entry")
	}

	return &entry, nil
}

// Delete removes the entry for alias, if any.
func (p *PostgreSQLEntryRepository) Delete(ctx context.Context, alias string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM keystore_entries WHERE alias = $1`

	if _, err := querier.ExecContext(ctx, query, alias); err != nil {
		return apperrors.Wrap(err, "failed to delete keystore entry")
	}
	return nil
}

// ListAliases returns all aliases ordered by creation time.
func (p *PostgreSQLEntryRepository) ListAliases(ctx context.Context) ([]string, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT alias FROM keystore_entries ORDER BY created_at ASC, alias ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list keystore entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	aliases := make([]string, 0)
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan keystore entry")
		}
		aliases = append(aliases, alias)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list keystore entries")
	}

	return aliases, nil
}

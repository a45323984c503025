package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/allisson/otpvault/internal/database"
	apperrors "github.com/allisson/otpvault/internal/errors"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
)

// mysqlDuplicateEntry is the MySQL error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// MySQLEntryRepository implements key store entry persistence for MySQL.
//
// Database schema requirements:
//   - alias: VARCHAR(255) PRIMARY KEY
//   - wrapped_key: BLOB
//   - hardware_backed, auth_required: BOOLEAN
//   - enrollment_id: VARCHAR(255)
//   - created_at: DATETIME(6)
type MySQLEntryRepository struct {
	db *sql.DB
}

// NewMySQLEntryRepository creates a new MySQL entry repository.
func NewMySQLEntryRepository(db *sql.DB) *MySQLEntryRepository {
	return &MySQLEntryRepository{db: db}
}

// Create inserts a new entry. A duplicate alias yields ErrEntryAlreadyExists.
func (m *MySQLEntryRepository) Create(ctx context.Context, entry *keystoreDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO keystore_entries (alias, wrapped_key, hardware_backed, auth_required, enrollment_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

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
		// Check for duplicate entry error (MySQL error number 1062)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return keystoreDomain.ErrEntryAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create keystore entry")
	}
	return nil
}

// Get retrieves an entry by alias.
func (m *MySQLEntryRepository) Get(ctx context.Context, alias string) (*keystoreDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT alias, wrapped_key, hardware_backed, auth_required, enrollment_id, created_at
			  FROM keystore_entries
			  WHERE alias = ?`

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
func (m *MySQLEntryRepository) Delete(ctx context.Context, alias string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM keystore_entries WHERE alias = ?`

	if _, err := querier.ExecContext(ctx, query, alias); err != nil {
		return apperrors.Wrap(err, "failed to delete keystore entry")
	}
	return nil
}

// ListAliases returns all aliases ordered by creation time.
func (m *MySQLEntryRepository) ListAliases(ctx context.Context) ([]string, error) {
	querier := database.GetTx(ctx, m.db)

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

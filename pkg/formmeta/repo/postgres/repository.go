// Package postgres implements formmeta.Repository on PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE metadata (
//	    id         BIGSERIAL PRIMARY KEY,
//	    form_id    UUID NOT NULL,
//	    kind       TEXT NOT NULL,
//	    value      TEXT NOT NULL DEFAULT '',
//	    file_key   TEXT NOT NULL DEFAULT '',
//	    file_name  TEXT NOT NULL DEFAULT '',
//	    file_type  TEXT NOT NULL DEFAULT '',
//	    file_size  BIGINT NOT NULL DEFAULT 0,
//	    file_hash  TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE UNIQUE INDEX metadata_form_kind_value_key
//	    ON metadata (form_id, kind, value);
//
// The unique index pushes the (form, kind, value) invariant into the
// storage layer: a concurrent upsert loser gets a unique violation, which
// this package maps to formmeta.ErrDuplicateMetaData.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-metadata/pkg/formmeta"
)

// DBTX is an interface that allows us to use either a database connection
// or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements formmeta.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return formmeta.ErrDuplicateMetaData
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return formmeta.ErrMetaDataNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateMetaData(ctx context.Context, md *formmeta.MetaData) error {
	query := `
		INSERT INTO metadata (
			form_id, kind, value, file_key, file_name, file_type,
			file_size, file_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	now := time.Now().UTC()
	md.CreatedAt = now
	md.UpdatedAt = now

	err := r.db.QueryRow(ctx, query,
		md.FormID, string(md.Kind), md.Value, md.FileKey, md.FileName,
		md.FileType, md.FileSize, md.FileHash, md.CreatedAt, md.UpdatedAt).Scan(&md.ID)

	if err != nil {
		return r.handlePostgresError("create metadata", err)
	}

	return nil
}

func (r *Repository) UpdateMetaData(ctx context.Context, md *formmeta.MetaData) error {
	query := `
		UPDATE metadata SET
			value = $2, file_key = $3, file_name = $4, file_type = $5,
			file_size = $6, file_hash = $7, updated_at = $8
		WHERE id = $1`

	md.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx, query,
		md.ID, md.Value, md.FileKey, md.FileName, md.FileType,
		md.FileSize, md.FileHash, md.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("update metadata", err)
	}
	if tag.RowsAffected() == 0 {
		return formmeta.ErrMetaDataNotFound
	}

	return nil
}

func (r *Repository) GetMetaData(ctx context.Context, id int64) (*formmeta.MetaData, error) {
	query := `
		SELECT id, form_id, kind, value, file_key, file_name, file_type,
		       file_size, file_hash, created_at, updated_at
		FROM metadata WHERE id = $1`

	md, err := scanMetaData(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get metadata", err)
	}

	return md, nil
}

func (r *Repository) ListMetaDataByFormAndKind(ctx context.Context, formID uuid.UUID, kind formmeta.Kind) ([]*formmeta.MetaData, error) {
	query := `
		SELECT id, form_id, kind, value, file_key, file_name, file_type,
		       file_size, file_hash, created_at, updated_at
		FROM metadata WHERE form_id = $1 AND kind = $2
		ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, formID, string(kind))
	if err != nil {
		return nil, r.handlePostgresError("list metadata by kind", err)
	}
	defer rows.Close()

	return collectMetaData(rows)
}

func (r *Repository) ListMetaDataByForm(ctx context.Context, formID uuid.UUID) ([]*formmeta.MetaData, error) {
	query := `
		SELECT id, form_id, kind, value, file_key, file_name, file_type,
		       file_size, file_hash, created_at, updated_at
		FROM metadata WHERE form_id = $1
		ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, formID)
	if err != nil {
		return nil, r.handlePostgresError("list metadata by form", err)
	}
	defer rows.Close()

	return collectMetaData(rows)
}

func (r *Repository) DeleteMetaData(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM metadata WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete metadata", err)
	}
	if tag.RowsAffected() == 0 {
		return formmeta.ErrMetaDataNotFound
	}

	return nil
}

func scanMetaData(row pgx.Row) (*formmeta.MetaData, error) {
	var md formmeta.MetaData
	var kind string
	err := row.Scan(
		&md.ID, &md.FormID, &kind, &md.Value, &md.FileKey, &md.FileName,
		&md.FileType, &md.FileSize, &md.FileHash, &md.CreatedAt, &md.UpdatedAt)
	if err != nil {
		return nil, err
	}
	md.Kind = formmeta.Kind(kind)
	return &md, nil
}

func collectMetaData(rows pgx.Rows) ([]*formmeta.MetaData, error) {
	var result []*formmeta.MetaData
	for rows.Next() {
		md, err := scanMetaData(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, md)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-metadata/pkg/formmeta"
	"github.com/tendant/simple-metadata/pkg/formmeta/repo/postgres"
)

const schema = `
	CREATE TABLE IF NOT EXISTS metadata (
	    id         BIGSERIAL PRIMARY KEY,
	    form_id    UUID NOT NULL,
	    kind       TEXT NOT NULL,
	    value      TEXT NOT NULL DEFAULT '',
	    file_key   TEXT NOT NULL DEFAULT '',
	    file_name  TEXT NOT NULL DEFAULT '',
	    file_type  TEXT NOT NULL DEFAULT '',
	    file_size  BIGINT NOT NULL DEFAULT 0,
	    file_hash  TEXT NOT NULL DEFAULT '',
	    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS metadata_form_kind_value_key
	    ON metadata (form_id, kind, value);`

// setupRepository connects to the database named by POSTGRES_TEST_URL. The
// tests are skipped when the variable is unset or the database is
// unreachable.
func setupRepository(t *testing.T) *postgres.Repository {
	dbURL := os.Getenv("POSTGRES_TEST_URL")
	if dbURL == "" {
		t.Skip("Skipping postgres tests. Set POSTGRES_TEST_URL to run.")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(context.Background(), schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return postgres.NewWithPool(pool)
}

func TestPostgresCreateAndGet(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	md := &formmeta.MetaData{
		FormID: uuid.New(),
		Kind:   formmeta.KindFormLicense,
		Value:  "CC BY 4.0",
	}
	require.NoError(t, repo.CreateMetaData(ctx, md))
	assert.NotZero(t, md.ID)
	assert.False(t, md.CreatedAt.IsZero())

	got, err := repo.GetMetaData(ctx, md.ID)
	require.NoError(t, err)
	assert.Equal(t, md.FormID, got.FormID)
	assert.Equal(t, formmeta.KindFormLicense, got.Kind)
	assert.Equal(t, "CC BY 4.0", got.Value)

	_, err = repo.GetMetaData(ctx, -1)
	assert.ErrorIs(t, err, formmeta.ErrMetaDataNotFound)
}

func TestPostgresDuplicateViolation(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	formID := uuid.New()

	first := &formmeta.MetaData{FormID: formID, Kind: formmeta.KindMedia, Value: "same.png"}
	require.NoError(t, repo.CreateMetaData(ctx, first))

	dup := &formmeta.MetaData{FormID: formID, Kind: formmeta.KindMedia, Value: "same.png"}
	err := repo.CreateMetaData(ctx, dup)
	assert.ErrorIs(t, err, formmeta.ErrDuplicateMetaData)
}

func TestPostgresUpdate(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	md := &formmeta.MetaData{FormID: uuid.New(), Kind: formmeta.KindSource, Value: "before"}
	require.NoError(t, repo.CreateMetaData(ctx, md))

	md.Value = "after"
	md.FileKey = "bob/docs/source.csv"
	require.NoError(t, repo.UpdateMetaData(ctx, md))

	got, err := repo.GetMetaData(ctx, md.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Value)
	assert.Equal(t, "bob/docs/source.csv", got.FileKey)

	missing := &formmeta.MetaData{ID: -1, FormID: md.FormID, Kind: formmeta.KindSource}
	assert.ErrorIs(t, repo.UpdateMetaData(ctx, missing), formmeta.ErrMetaDataNotFound)
}

func TestPostgresListNewestFirst(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	formID := uuid.New()

	for _, value := range []string{"a.png", "b.png"} {
		md := &formmeta.MetaData{FormID: formID, Kind: formmeta.KindMedia, Value: value}
		require.NoError(t, repo.CreateMetaData(ctx, md))
	}
	doc := &formmeta.MetaData{FormID: formID, Kind: formmeta.KindSupportingDoc, Value: "doc.pdf"}
	require.NoError(t, repo.CreateMetaData(ctx, doc))

	media, err := repo.ListMetaDataByFormAndKind(ctx, formID, formmeta.KindMedia)
	require.NoError(t, err)
	require.Len(t, media, 2)
	assert.Equal(t, "b.png", media[0].Value)
	assert.Equal(t, "a.png", media[1].Value)

	all, err := repo.ListMetaDataByForm(ctx, formID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "doc.pdf", all[0].Value)
}

func TestPostgresDelete(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	md := &formmeta.MetaData{FormID: uuid.New(), Kind: formmeta.KindExternalExport, Value: "E|https://host/e.xls"}
	require.NoError(t, repo.CreateMetaData(ctx, md))

	require.NoError(t, repo.DeleteMetaData(ctx, md.ID))
	_, err := repo.GetMetaData(ctx, md.ID)
	assert.ErrorIs(t, err, formmeta.ErrMetaDataNotFound)

	assert.ErrorIs(t, repo.DeleteMetaData(ctx, md.ID), formmeta.ErrMetaDataNotFound)
}

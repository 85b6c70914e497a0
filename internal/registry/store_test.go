// internal/registry/store_test.go
package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borehole-analytics/internal/common/database"
	apperrors "borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t))
	return store, mock
}

func createTestUpload() *models.UploadRecord {
	return &models.UploadRecord{
		Filename:    "boreholes.csv",
		RecordCount: 6,
		AvgYieldLps: 3.72,
		AvgCostUSD:  5499.67,
		Fingerprint: "fp-abc",
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Record Tests
// ==========================

func TestStore_Record_Success(t *testing.T) {
	store, mock := createTestStore(t)
	rec := createTestUpload()

	mock.ExpectExec(`INSERT INTO uploads`).
		WithArgs(sqlmock.AnyArg(), "boreholes.csv", 6, 3.72, 5499.67, "fp-abc", rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Record(context.Background(), rec)

	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID, "missing ID should be generated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Record_KeepsExplicitID(t *testing.T) {
	store, mock := createTestStore(t)
	rec := createTestUpload()
	rec.ID = "11111111-2222-3333-4444-555555555555"

	mock.ExpectExec(`INSERT INTO uploads`).
		WithArgs(rec.ID, "boreholes.csv", 6, 3.72, 5499.67, "fp-abc", rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Record_InsertFailure(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec(`INSERT INTO uploads`).
		WillReturnError(fmt.Errorf("connection reset"))

	err := store.Record(context.Background(), createTestUpload())

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeRegistryInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// Query Tests
// ==========================

func uploadColumns() []string {
	return []string{"id", "filename", "record_count", "avg_yield", "avg_cost", "fingerprint", "created_at"}
}

func TestStore_Recent(t *testing.T) {
	store, mock := createTestStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(uploadColumns()).
		AddRow("id-2", "second.csv", 12, 4.1, 6100.0, "fp-2", now).
		AddRow("id-1", "first.csv", 6, 3.72, 5499.67, "fp-1", now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT .+ FROM uploads ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(rows)

	uploads, err := store.Recent(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "second.csv", uploads[0].Filename)
	assert.Equal(t, 12, uploads[0].RecordCount)
}

func TestStore_Recent_DefaultLimit(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM uploads ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(uploadColumns()))

	uploads, err := store.Recent(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestStore_Recent_QueryFailure(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM uploads`).
		WillReturnError(fmt.Errorf("relation does not exist"))

	_, err := store.Recent(context.Background(), 5)

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeRegistryQueryFailed, stdErr.Code)
}

func TestStore_FindByFingerprint(t *testing.T) {
	store, mock := createTestStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(uploadColumns()).
		AddRow("id-1", "boreholes.csv", 6, 3.72, 5499.67, "fp-abc", now)
	mock.ExpectQuery(`SELECT .+ FROM uploads WHERE fingerprint = \$1`).
		WithArgs("fp-abc").
		WillReturnRows(rows)

	rec, err := store.FindByFingerprint(context.Background(), "fp-abc")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "id-1", rec.ID)
}

func TestStore_FindByFingerprint_NotFound(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM uploads WHERE fingerprint = \$1`).
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(uploadColumns()))

	rec, err := store.FindByFingerprint(context.Background(), "unknown")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_EnsureSchema(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS uploads`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// internal/registry/store.go
package registry

import (
	"context"
	"database/sql"
	"fmt"

	"borehole-analytics/internal/common/database"
	"borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/models"

	"github.com/google/uuid"
)

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS uploads (
			id           UUID PRIMARY KEY,
			filename     TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			avg_yield    DOUBLE PRECISION NOT NULL,
			avg_cost     DOUBLE PRECISION NOT NULL,
			fingerprint  TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	insertUploadSQL = `
		INSERT INTO uploads (id, filename, record_count, avg_yield, avg_cost, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	recentUploadsSQL = `
		SELECT id, filename, record_count, avg_yield, avg_cost, fingerprint, created_at
		FROM uploads ORDER BY created_at DESC LIMIT $1`

	findByFingerprintSQL = `
		SELECT id, filename, record_count, avg_yield, avg_cost, fingerprint, created_at
		FROM uploads WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`
)

// Store is the upload audit log. It records every accepted dataset so past
// uploads can be listed even after the in-memory dataset is replaced.
type Store struct {
	client *database.PostgresClient
	logger logger.Logger
}

// NewStore creates a registry store on top of a Postgres client.
func NewStore(client *database.PostgresClient, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "registry"}),
	}
}

// EnsureSchema creates the uploads table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.Exec(ctx, createTableSQL); err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("ensure schema: %w", err))
	}
	return nil
}

// Record inserts an upload entry. A missing ID is filled with a new UUID.
func (s *Store) Record(ctx context.Context, rec *models.UploadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := s.client.Exec(ctx, insertUploadSQL,
		rec.ID, rec.Filename, rec.RecordCount, rec.AvgYieldLps, rec.AvgCostUSD,
		rec.Fingerprint, rec.CreatedAt)
	if err != nil {
		return errors.NewRegistryInsertFailedError(err)
	}

	s.logger.Info("upload recorded", map[string]interface{}{
		"uploadId": rec.ID,
		"filename": rec.Filename,
		"records":  rec.RecordCount,
	})
	return nil
}

// Recent returns the newest upload entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.client.Query(ctx, recentUploadsSQL, limit)
	if err != nil {
		return nil, errors.NewRegistryQueryFailedError(err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// FindByFingerprint returns the latest upload with the given fingerprint,
// or nil when none exists.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*models.UploadRecord, error) {
	row := s.client.QueryRow(ctx, findByFingerprintSQL, fingerprint)

	var rec models.UploadRecord
	err := row.Scan(&rec.ID, &rec.Filename, &rec.RecordCount, &rec.AvgYieldLps,
		&rec.AvgCostUSD, &rec.Fingerprint, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewRegistryQueryFailedError(err)
	}
	return &rec, nil
}

func scanUploads(rows *sql.Rows) ([]models.UploadRecord, error) {
	var out []models.UploadRecord
	for rows.Next() {
		var rec models.UploadRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.RecordCount, &rec.AvgYieldLps,
			&rec.AvgCostUSD, &rec.Fingerprint, &rec.CreatedAt); err != nil {
			return nil, errors.NewRegistryQueryFailedError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRegistryQueryFailedError(err)
	}
	return out, nil
}

// Package store persists completed intake submissions in Postgres and
// serves the reviewer-side queries over them.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"intake-bot/internal/common/database"
	stderrors "intake-bot/internal/common/errors"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/common/validation"
	"intake-bot/internal/models"

	"github.com/google/uuid"
)

const createApplicationsTable = `
CREATE TABLE IF NOT EXISTS applications (
    id          TEXT PRIMARY KEY,
    user_id     BIGINT NOT NULL,
    name        TEXT NOT NULL,
    phone       TEXT NOT NULL,
    position    TEXT NOT NULL,
    experience  TEXT NOT NULL,
    cv_file_id  TEXT NOT NULL DEFAULT '',
    cv_kind     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_created_at ON applications (created_at DESC);
`

// ApplicationStore reads and writes submissions. A nil inner client
// puts the store in degraded mode: every call returns
// STORE_UNAVAILABLE and the bot keeps answering users.
type ApplicationStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewApplicationStore(db *database.PostgresClient, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{db: db, logger: log}
}

// Available reports whether the backing database was initialized.
func (s *ApplicationStore) Available() bool {
	return s.db != nil
}

// InitSchema creates the applications table when missing.
func (s *ApplicationStore) InitSchema(ctx context.Context) error {
	if !s.Available() {
		return stderrors.NewStoreUnavailableError()
	}
	if _, err := s.db.Exec(ctx, createApplicationsTable); err != nil {
		return stderrors.NewStoreWriteError(err)
	}
	return nil
}

// Save assigns the record identity, validates the payload and inserts
// it. Records are never updated afterwards.
func (s *ApplicationStore) Save(ctx context.Context, app *models.Application) error {
	if !s.Available() {
		return stderrors.NewStoreUnavailableError()
	}

	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}

	payload := map[string]interface{}{
		"user_id":    app.UserID,
		"name":       app.Name,
		"phone":      app.Phone,
		"position":   app.Position,
		"experience": app.Experience,
		"cv_file_id": app.CVFileID,
		"cv_type":    string(app.CVKind),
	}
	if err := validation.ValidateApplication(payload); err != nil {
		return stderrors.NewValidationError(err.Error())
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO applications (id, user_id, name, phone, position, experience, cv_file_id, cv_kind, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		app.ID, app.UserID, app.Name, app.Phone, app.Position, app.Experience,
		app.CVFileID, string(app.CVKind), app.CreatedAt,
	)
	if err != nil {
		s.logger.Error("application insert failed", map[string]interface{}{
			"application_id": app.ID,
			"user_id":        app.UserID,
			"error":          err.Error(),
		})
		return stderrors.NewStoreWriteError(err)
	}

	s.logger.Info("application saved", map[string]interface{}{
		"application_id": app.ID,
		"user_id":        app.UserID,
		"position":       app.Position,
	})
	return nil
}

// GetByID fetches one submission. A missing record returns (nil, nil).
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if !s.Available() {
		return nil, stderrors.NewStoreUnavailableError()
	}

	row := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, phone, position, experience, cv_file_id, cv_kind, created_at
		 FROM applications WHERE id = $1`, id)

	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	return app, nil
}

// ListRecent returns one page of submissions, newest first, plus a
// has-more hint. The page is cut by fetching offset+limit rows and
// dropping the first offset of them; has-more is true exactly when a
// full page came back, so a page that ends flush on the data set still
// reports a (possibly empty) next page.
func (s *ApplicationStore) ListRecent(ctx context.Context, limit, offset int) ([]models.Application, bool, error) {
	if !s.Available() {
		return nil, false, stderrors.NewStoreUnavailableError()
	}
	if limit <= 0 {
		return nil, false, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, phone, position, experience, cv_file_id, cv_kind, created_at
		 FROM applications ORDER BY created_at DESC LIMIT $1`, offset+limit)
	if err != nil {
		return nil, false, stderrors.NewStoreQueryError(err)
	}
	defer rows.Close()

	var page []models.Application
	skipped := 0
	for rows.Next() {
		app, err := scanApplicationRows(rows)
		if err != nil {
			return nil, false, stderrors.NewStoreQueryError(err)
		}
		if skipped < offset {
			skipped++
			continue
		}
		page = append(page, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, false, stderrors.NewStoreQueryError(err)
	}

	return page, len(page) == limit, nil
}

// SearchByPosition scans up to scanLimit of the newest submissions and
// keeps those whose position contains the query, case-insensitively.
// The scan stops early once limit matches are collected, so results
// are newest-first but the scan window bounds what can be found.
func (s *ApplicationStore) SearchByPosition(ctx context.Context, query string, limit, scanLimit int) ([]models.Application, error) {
	if !s.Available() {
		return nil, stderrors.NewStoreUnavailableError()
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, phone, position, experience, cv_file_id, cv_kind, created_at
		 FROM applications ORDER BY created_at DESC LIMIT $1`, scanLimit)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	defer rows.Close()

	var matches []models.Application
	for rows.Next() {
		app, err := scanApplicationRows(rows)
		if err != nil {
			return nil, stderrors.NewStoreQueryError(err)
		}
		if strings.Contains(strings.ToLower(app.Position), needle) {
			matches = append(matches, *app)
			if len(matches) >= limit {
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}

	return matches, nil
}

// PositionStats builds a position frequency table over the trailing
// days window. At most scanLimit rows enter the count.
func (s *ApplicationStore) PositionStats(ctx context.Context, days, scanLimit int) (*models.PositionStats, error) {
	if !s.Available() {
		return nil, stderrors.NewStoreUnavailableError()
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.Query(ctx,
		`SELECT position FROM applications WHERE created_at >= $1 ORDER BY created_at DESC LIMIT $2`,
		cutoff, scanLimit)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	defer rows.Close()

	stats := &models.PositionStats{Counts: map[string]int{}, Days: days}
	for rows.Next() {
		var position string
		if err := rows.Scan(&position); err != nil {
			return nil, stderrors.NewStoreQueryError(err)
		}
		stats.Counts[position]++
		stats.Total++
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	var kind string
	err := row.Scan(&app.ID, &app.UserID, &app.Name, &app.Phone, &app.Position,
		&app.Experience, &app.CVFileID, &kind, &app.CreatedAt)
	if err != nil {
		return nil, err
	}
	app.CVKind = models.CVKind(kind)
	return &app, nil
}

func scanApplicationRows(rows *sql.Rows) (*models.Application, error) {
	return scanApplication(rows)
}

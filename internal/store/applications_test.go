package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"intake-bot/internal/common/database"
	stderrors "intake-bot/internal/common/errors"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*ApplicationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewApplicationStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t)), mock
}

func appColumns() []string {
	return []string{"id", "user_id", "name", "phone", "position", "experience", "cv_file_id", "cv_kind", "created_at"}
}

func appRow(rows *sqlmock.Rows, id string, at time.Time) *sqlmock.Rows {
	return rows.AddRow(id, int64(100), "Ali Valiyev", "+998901234567", "Teacher", "5 years in school", "", "", at)
}

func TestSave_AssignsIdentityAndInserts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WithArgs(sqlmock.AnyArg(), int64(100), "Ali Valiyev", "+998901234567",
			"Teacher", "5 years in school", "cv-file-1", "doc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := &models.Application{
		UserID:     100,
		Name:       "Ali Valiyev",
		Phone:      "+998901234567",
		Position:   "Teacher",
		Experience: "5 years in school",
		CVFileID:   "cv-file-1",
		CVKind:     models.CVKindDocument,
	}
	require.NoError(t, s.Save(context.Background(), app))

	assert.NotEmpty(t, app.ID)
	assert.False(t, app.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_RejectsIncompletePayload(t *testing.T) {
	s, mock := newMockStore(t)

	app := &models.Application{
		UserID:   100,
		Name:     "Ali Valiyev",
		Position: "Teacher",
		// phone and experience missing
	}
	err := s.Save(context.Background(), app)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, stderrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFoundIsNotAnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM applications WHERE id =")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(appColumns()))

	app, err := s.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, app)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_DropsOffsetAndFlagsFullPage(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(appColumns())
	for i, id := range []string{"a", "b", "c", "d"} {
		appRow(rows, id, now.Add(-time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT")).
		WithArgs(4).
		WillReturnRows(rows)

	page, hasMore, err := s.ListRecent(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)
	assert.Equal(t, "d", page[1].ID)
	// a full page always reports a next page, even a potentially empty one
	assert.True(t, hasMore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_PartialPageHasNoMore(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(appColumns())
	for i, id := range []string{"a", "b", "c"} {
		appRow(rows, id, now.Add(-time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT")).
		WithArgs(4).
		WillReturnRows(rows)

	page, hasMore, err := s.ListRecent(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].ID)
	assert.False(t, hasMore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_ConsecutivePagesAreDisjoint(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	ids := []string{"a", "b", "c", "d", "e"}

	first := sqlmock.NewRows(appColumns())
	for i, id := range ids[:2] {
		appRow(first, id, now.Add(-time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT")).
		WithArgs(2).WillReturnRows(first)

	second := sqlmock.NewRows(appColumns())
	for i, id := range ids[:4] {
		appRow(second, id, now.Add(-time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT")).
		WithArgs(4).WillReturnRows(second)

	pageOne, _, err := s.ListRecent(context.Background(), 2, 0)
	require.NoError(t, err)
	pageTwo, _, err := s.ListRecent(context.Background(), 2, 2)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, app := range pageOne {
		seen[app.ID] = true
	}
	for _, app := range pageTwo {
		assert.False(t, seen[app.ID], "id %s appears on both pages", app.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchByPosition_CaseInsensitiveAndBounded(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(appColumns()).
		AddRow("1", int64(1), "A B", "+998901112233", "Math Teacher", "exp exp", "", "", now).
		AddRow("2", int64(2), "C D", "+998901112234", "Security", "exp exp", "", "", now.Add(-time.Minute)).
		AddRow("3", int64(3), "E F", "+998901112235", "English TEACHER", "exp exp", "", "", now.Add(-2*time.Minute)).
		AddRow("4", int64(4), "G H", "+998901112236", "Teacher assistant", "exp exp", "", "", now.Add(-3*time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT")).
		WithArgs(300).
		WillReturnRows(rows)

	matches, err := s.SearchByPosition(context.Background(), "TeAcH", 2, 300)
	require.NoError(t, err)
	// scan stops at limit, so row 4 is never considered
	require.Len(t, matches, 2)
	assert.Equal(t, "1", matches[0].ID)
	assert.Equal(t, "3", matches[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchByPosition_EmptyQueryShortCircuits(t *testing.T) {
	s, mock := newMockStore(t)

	matches, err := s.SearchByPosition(context.Background(), "   ", 10, 300)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPositionStats_CountsWindow(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"position"}).
		AddRow("Teacher").
		AddRow("Teacher").
		AddRow("Security")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT position FROM applications WHERE created_at >=")).
		WithArgs(sqlmock.AnyArg(), 1000).
		WillReturnRows(rows)

	stats, err := s.PositionStats(context.Background(), 30, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 30, stats.Days)
	assert.Equal(t, 2, stats.Counts["Teacher"])
	assert.Equal(t, 1, stats.Counts["Security"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDegradedMode_AllOpsReportUnavailable(t *testing.T) {
	s := NewApplicationStore(nil, logger.NewNoOpLogger())
	ctx := context.Background()

	assert.False(t, s.Available())

	err := s.Save(ctx, &models.Application{UserID: 1})
	assert.Equal(t, stderrors.ErrCodeStoreUnavailable, stderrors.CodeOf(err))

	_, err = s.GetByID(ctx, "x")
	assert.Equal(t, stderrors.ErrCodeStoreUnavailable, stderrors.CodeOf(err))

	_, _, err = s.ListRecent(ctx, 10, 0)
	assert.Equal(t, stderrors.ErrCodeStoreUnavailable, stderrors.CodeOf(err))

	_, err = s.SearchByPosition(ctx, "teacher", 10, 300)
	assert.Equal(t, stderrors.ErrCodeStoreUnavailable, stderrors.CodeOf(err))

	_, err = s.PositionStats(ctx, 30, 1000)
	assert.Equal(t, stderrors.ErrCodeStoreUnavailable, stderrors.CodeOf(err))
}

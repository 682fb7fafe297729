package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartadmission/admissions-api/internal/models"
)

// recentTimestamp matches a time argument stamped within the last minute.
type recentTimestamp struct{}

func (recentTimestamp) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	return ok && time.Since(ts) < time.Minute && time.Since(ts) >= 0
}

func newApplicationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func applicationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"seq", "id", "full_name", "email", "phone", "date_of_birth", "address", "city", "country", "postal_code",
		"course", "degree", "qualification", "gpa", "statement", "documents", "status", "date_applied", "date_updated"})
}

func addApplicationRow(rows *sqlmock.Rows, seq int64, id, email string, status models.Status) *sqlmock.Rows {
	return rows.AddRow(seq, id, "Jane Doe", email, "+621234", "2001-04-12", "Street 1", "Jakarta", "Indonesia", "10110",
		"Computer Science", "Bachelor", "High School Diploma", "88.5", "A statement of purpose.", []byte(`[]`), status, time.Now(), nil)
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Application{
		ID:        "APP1ABCDEF",
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
		Course:    "Computer Science",
		Status:    models.StatusPending,
		Documents: models.Documents{},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListAllOrdersByInsertion(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := applicationRows()
	addApplicationRow(rows, 1, "APP1AAAAA", "first@example.com", models.StatusPending)
	addApplicationRow(rows, 2, "APP1BBBBB", "second@example.com", models.StatusReviewing)
	mock.ExpectQuery("SELECT (.+) FROM applications ORDER BY seq ASC").
		WillReturnRows(rows)

	apps, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "APP1AAAAA", apps[0].ID)
	assert.Equal(t, "APP1BBBBB", apps[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByIDAndEmail(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := addApplicationRow(applicationRows(), 1, "APP1AAAAA", "jane@example.com", models.StatusPending)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(id) = LOWER($1) AND LOWER(email) = LOWER($2)")).
		WithArgs("app1aaaaa", "JANE@example.com").
		WillReturnRows(rows)

	app, err := repo.FindByIDAndEmail(context.Background(), "app1aaaaa", "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "APP1AAAAA", app.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByIDAndEmailNotFound(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(id) = LOWER($1) AND LOWER(email) = LOWER($2)")).
		WithArgs("APP1ZZZZZ", "nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIDAndEmail(context.Background(), "APP1ZZZZZ", "nobody@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryExistsByID(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM applications WHERE LOWER(id) = LOWER($1) LIMIT 1")).
		WithArgs("APP1AAAAA").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM applications WHERE LOWER(id) = LOWER($1) LIMIT 1")).
		WithArgs("APP1ZZZZZ").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByID(context.Background(), "APP1AAAAA")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByID(context.Background(), "APP1ZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := addApplicationRow(applicationRows(), 1, "APP1AAAAA", "jane@example.com", models.StatusAccepted)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET status = $2, date_updated = $3")).
		WithArgs("APP1AAAAA", models.StatusAccepted, recentTimestamp{}).
		WillReturnRows(rows)

	app, err := repo.UpdateStatus(context.Background(), "APP1AAAAA", models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatusUnknownID(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET status = $2, date_updated = $3")).
		WithArgs("APP1ZZZZZ", models.StatusRejected, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), "APP1ZZZZZ", models.StatusRejected)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDeleteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applications WHERE LOWER(id) = LOWER($1)")).
		WithArgs("APP1ZZZZZ").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "APP1ZZZZZ")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(models.StatusPending, 3).
		AddRow(models.StatusAccepted, 1)
	mock.ExpectQuery("SELECT status, COUNT").WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.StatusPending])
	assert.Equal(t, 1, counts[models.StatusAccepted])
	assert.Equal(t, 0, counts[models.StatusRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCourseCounts(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"course", "count"}).
		AddRow("Computer Science", 5).
		AddRow("Business Administration", 2)
	mock.ExpectQuery("SELECT course, COUNT").WillReturnRows(rows)

	counts, err := repo.CourseCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Computer Science", counts[0].Course)
	assert.Equal(t, 5, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMonthlyCounts(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"month", "count"}).
		AddRow("2026-07", 4).
		AddRow("2026-08", 9)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT TO_CHAR(date_applied, 'YYYY-MM')")).WillReturnRows(rows)

	counts, err := repo.MonthlyCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "2026-07", counts[0].Month)
	assert.Equal(t, 4, counts[0].Count)
	assert.Equal(t, "2026-08", counts[1].Month)
	assert.NoError(t, mock.ExpectationsWereMet())
}

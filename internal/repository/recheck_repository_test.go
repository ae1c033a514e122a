package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

var recheckRowColumns = []string{"id", "hafalan_record_id", "round", "rechecked_at", "rechecked_by_teacher_id", "scope", "all_passed", "failed_verses", "notes"}

func TestRecheckRepositoryCreateDefaults(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewRecheckRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recheck_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.RecheckRecord{HafalanRecordID: "rec-1", Round: 1, RecheckedByTeacherID: "teacher-1", AllPassed: true}
	require.NoError(t, repo.Create(context.Background(), nil, rec))
	assert.NotEmpty(t, rec.ID)
	assert.NotNil(t, rec.Scope)
	assert.NotNil(t, rec.FailedVerses)
	assert.False(t, rec.RecheckedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecheckRepositoryLatest(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewRecheckRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM recheck_records\s+WHERE hafalan_record_id = \$1 ORDER BY round DESC LIMIT 1`).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(recheckRowColumns).
			AddRow("rc-2", "rec-1", 2, now, "teacher-1", `[4,6]`, false, `[6]`, nil))

	latest, err := repo.Latest(context.Background(), nil, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Round)
	assert.Equal(t, models.VerseSet{6}, latest.FailedVerses)

	mock.ExpectQuery(`FROM recheck_records`).
		WithArgs("rec-2").
		WillReturnRows(sqlmock.NewRows(recheckRowColumns))
	_, err = repo.Latest(context.Background(), nil, "rec-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecheckRepositoryListByRecord(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewRecheckRepository(db)

	now := time.Now()
	mock.ExpectQuery(`ORDER BY round ASC`).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(recheckRowColumns).
			AddRow("rc-1", "rec-1", 1, now, "teacher-1", `[1,2,3,4,5,6,7]`, false, `[4,6]`, "ulang").
			AddRow("rc-2", "rec-1", 2, now, "teacher-1", `[4,6]`, true, `[]`, nil))

	rounds, err := repo.ListByRecord(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.True(t, rounds[1].Scope.Equal(rounds[0].FailedVerses))
	require.NotNil(t, rounds[0].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"database/sql"
	"testing"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_id = \\$1").
		WithArgs(int64(123)).
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(123)

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE LOWER").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByUsername("ghost")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SaveSnapshot(t *testing.T) {
	tests := []struct {
		name          string
		result        sql.Result
		expectedError error
	}{
		{
			name:   "version matches",
			result: sqlmock.NewResult(0, 1),
		},
		{
			name:          "version conflict",
			result:        sqlmock.NewResult(0, 0),
			expectedError: repository.ErrVersionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewUserRepo(db)
			u := domain.NewUser(123, "tester", "ABC123")
			u.XP = 150

			mock.ExpectExec("UPDATE users SET").WillReturnResult(tt.result)

			err = repo.SaveSnapshot(u, 1)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_AddXP(t *testing.T) {
	tests := []struct {
		name          string
		result        sql.Result
		expectedError error
	}{
		{
			name:   "user exists",
			result: sqlmock.NewResult(0, 1),
		},
		{
			name:          "user missing",
			result:        sqlmock.NewResult(0, 0),
			expectedError: repository.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewUserRepo(db)

			mock.ExpectExec("UPDATE users SET xp = xp \\+ \\$2").
				WithArgs(int64(123), 100).
				WillReturnResult(tt.result)

			err = repo.AddXP(123, 100)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_IncrementDailyReferrals(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectQuery("UPDATE users SET").
		WithArgs(int64(42), "2026-02-20").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.IncrementDailyReferrals(42, "2026-02-20")

	assert.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_IncrementDailyReferrals_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectQuery("UPDATE users SET").
		WithArgs(int64(42), "2026-02-20").
		WillReturnError(sql.ErrNoRows)

	count, err := repo.IncrementDailyReferrals(42, "2026-02-20")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetPaymentPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET").
		WithArgs(int64(123), "file-abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.SetPaymentPending(123, "file-abc")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_ApprovePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET").
		WithArgs(int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.ApprovePayment(123)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_RejectPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectExec("UPDATE users SET").
		WithArgs(int64(123), expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.RejectPayment(123, expiresAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_ExpireDemoAccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET access_type = ''").
		WithArgs(int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.ExpireDemoAccess(123)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

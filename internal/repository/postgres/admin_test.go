package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAdminRepo_IsAdmin(t *testing.T) {
	tests := []struct {
		name       string
		telegramID int64
		exists     bool
	}{
		{name: "manager", telegramID: 123, exists: true},
		{name: "regular user", telegramID: 456, exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewAdminRepo(db)

			mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM admins WHERE telegram_id = \\$1\\)").
				WithArgs(tt.telegramID).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			isAdmin, err := repo.IsAdmin(tt.telegramID)

			assert.NoError(t, err)
			assert.Equal(t, tt.exists, isAdmin)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdminRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewAdminRepo(db)

	mock.ExpectQuery("SELECT telegram_id FROM admins").
		WillReturnRows(sqlmock.NewRows([]string{"telegram_id"}).
			AddRow(int64(123)).
			AddRow(int64(456)))

	ids, err := repo.List()

	assert.NoError(t, err)
	assert.Equal(t, []int64{123, 456}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepo_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewAdminRepo(db)

	mock.ExpectExec("INSERT INTO admins").
		WithArgs(int64(123), "manager_one", int64(999)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Add(123, 999, "manager_one")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepo_Remove(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewAdminRepo(db)

	mock.ExpectExec("DELETE FROM admins").
		WithArgs(int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Remove(123)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/userhub/userhub-go/internal/model"
)

func newMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewUserRepository(db), mock
}

func userRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "email", "age", "created_at", "updated_at"})
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(id, "User", "user@example.com", nil, now, now)
	}
	return rows
}

func TestList(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, email, age, created_at, updated_at FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
	)).WithArgs(10, 20).WillReturnRows(userRows(3, 2, 1))

	users, err := repo.List(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("List() returned %d users, want 3", len(users))
	}
	if users[0].ID != 3 {
		t.Errorf("List() first user ID = %d, want 3", users[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCount(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(42))

	total, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if total != 42 {
		t.Errorf("Count() = %d, want 42", total)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, email, age, created_at, updated_at FROM users WHERE id = ?`,
	)).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestGetByEmailSelectsPasswordOnlyWhenAsked(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, email, password, age, created_at, updated_at FROM users WHERE email = ?`,
	)).WithArgs("a@b.com").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email", "password", "age", "created_at", "updated_at"}).
			AddRow(1, "User", "a@b.com", "$2a$10$hash", nil, now, now),
	)

	user, err := repo.GetByEmail(context.Background(), "a@b.com", true)
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}
	if user.Password == "" {
		t.Error("GetByEmail(includePassword=true) did not populate password hash")
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, email, age, created_at, updated_at FROM users WHERE email = ?`,
	)).WithArgs("a@b.com").WillReturnRows(userRows(1))

	user, err = repo.GetByEmail(context.Background(), "a@b.com", false)
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}
	if user.Password != "" {
		t.Error("GetByEmail(includePassword=false) populated password hash")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSearchAllFilters(t *testing.T) {
	repo, mock := newMock(t)
	minAge, maxAge := int64(18), int64(65)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, email, age, created_at, updated_at FROM users`+
			` WHERE name LIKE ? AND email LIKE ? AND age >= ? AND age <= ?`+
			` ORDER BY created_at DESC LIMIT ?`,
	)).WithArgs("%jo%", "%@example.com%", minAge, maxAge, 5).
		WillReturnRows(userRows(1))

	users, err := repo.Search(context.Background(), model.SearchFilters{
		Name:   "jo",
		Email:  "@example.com",
		MinAge: &minAge,
		MaxAge: &maxAge,
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Search() returned %d users, want 1", len(users))
	}
}

func TestSearchNoFilters(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, email, age, created_at, updated_at FROM users ORDER BY created_at DESC`,
	)).WillReturnRows(userRows(2, 1))

	users, err := repo.Search(context.Background(), model.SearchFilters{})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Search() returned %d users, want 2", len(users))
	}
}

func TestSearchCount(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM users WHERE name LIKE ?`,
	)).WithArgs("%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(7))

	total, err := repo.SearchCount(context.Background(), model.SearchFilters{Name: "ann", Limit: 3})
	if err != nil {
		t.Fatalf("SearchCount() unexpected error: %v", err)
	}
	if total != 7 {
		t.Errorf("SearchCount() = %d, want 7 (limit must not apply)", total)
	}
}

func TestInsertTx(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO users (name, email, password, age) VALUES (?, ?, ?, ?)`,
	)).WithArgs("Ann", "ann@example.com", "$2a$10$hash", nil).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	id, err := repo.InsertTx(context.Background(), tx, &model.User{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("InsertTx() unexpected error: %v", err)
	}
	if id != 5 {
		t.Errorf("InsertTx() id = %d, want 5", id)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() unexpected error: %v", err)
	}
}

func TestUpdateTxBuildsSetFromPresentFields(t *testing.T) {
	repo, mock := newMock(t)
	name := "New Name"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE users SET name = ?, age = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
	)).WithArgs(name, int64(30), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	err = repo.UpdateTx(context.Background(), tx, 7, model.UpdateUserRequest{
		Name: &name,
		Age:  model.OptionalInt64{Set: true, Valid: true, Value: 30},
	})
	if err != nil {
		t.Fatalf("UpdateTx() unexpected error: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateTxNullAgeWritesNull(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE users SET age = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
	)).WithArgs(nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	err = repo.UpdateTx(context.Background(), tx, 7, model.UpdateUserRequest{
		Age: model.OptionalInt64{Set: true, Valid: false},
	})
	if err != nil {
		t.Fatalf("UpdateTx() unexpected error: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteTxNoRowsAffected(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = ?`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	err = repo.DeleteTx(context.Background(), tx, 9)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("DeleteTx() error = %v, want ErrUserNotFound", err)
	}

	tx.Rollback()
}

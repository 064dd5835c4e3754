package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/userhub/userhub-go/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

const (
	userColumns         = "id, name, email, age, created_at, updated_at"
	userColumnsWithHash = "id, name, email, password, age, created_at, updated_at"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so single-row reads
// can run either on a pooled connection or inside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository handles user persistence operations against MySQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository on the given pool.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// BeginTx starts a new database transaction.
func (r *UserRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// List retrieves a page of users ordered by newest created_at first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Count returns the total number of user rows.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	return total, err
}

// GetByID retrieves a user by ID without the password hash.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return getUserByID(ctx, r.db, id)
}

// GetByIDTx retrieves a user by ID within the provided transaction.
func (r *UserRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*model.User, error) {
	return getUserByID(ctx, tx, id)
}

// GetByEmail retrieves a user by email. The password hash is selected only
// when includePassword is true, which is reserved for the authentication
// path.
func (r *UserRepository) GetByEmail(ctx context.Context, email string, includePassword bool) (*model.User, error) {
	return getUserByEmail(ctx, r.db, email, includePassword)
}

// GetByEmailTx retrieves a user by email within the provided transaction.
func (r *UserRepository) GetByEmailTx(ctx context.Context, tx *sql.Tx, email string, includePassword bool) (*model.User, error) {
	return getUserByEmail(ctx, tx, email, includePassword)
}

// Search retrieves users matching all supplied filters, newest first,
// capped at filters.Limit when positive.
func (r *UserRepository) Search(ctx context.Context, filters model.SearchFilters) ([]model.User, error) {
	where, args := buildFilterClause(filters)

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

// SearchCount returns the total number of users matching the supplied
// filters, ignoring any limit.
func (r *UserRepository) SearchCount(ctx context.Context, filters model.SearchFilters) (int, error) {
	where, args := buildFilterClause(filters)

	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
	return total, err
}

// InsertTx inserts a new user within the provided transaction and returns
// the generated ID. user.Password must already be hashed.
func (r *UserRepository) InsertTx(ctx context.Context, tx *sql.Tx, user *model.User) (int64, error) {
	query := `INSERT INTO users (name, email, password, age) VALUES (?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, user.Name, user.Email, user.Password, user.Age)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// UpdateTx updates only the fields present in patch, stamping a fresh
// updated_at. A present-but-null age writes NULL, clearing the column.
// patch.Password, when present, must already be hashed. At
// least one field must be set; callers enforce that before building the
// transaction.
func (r *UserRepository) UpdateTx(ctx context.Context, tx *sql.Tx, id int64, patch model.UpdateUserRequest) error {
	var (
		assignments []string
		args        []any
	)

	if patch.Name != nil {
		assignments = append(assignments, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		assignments = append(assignments, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Password != nil {
		assignments = append(assignments, "password = ?")
		args = append(args, *patch.Password)
	}
	if patch.Age.Set {
		assignments = append(assignments, "age = ?")
		args = append(args, patch.Age.Ptr())
	}

	query := `UPDATE users SET ` + strings.Join(assignments, ", ") +
		`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	args = append(args, id)

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteTx removes a user row within the provided transaction.
func (r *UserRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func getUserByID(ctx context.Context, q querier, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user := &model.User{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Age, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func getUserByEmail(ctx context.Context, q querier, email string, includePassword bool) (*model.User, error) {
	user := &model.User{}
	var err error

	if includePassword {
		query := `SELECT ` + userColumnsWithHash + ` FROM users WHERE email = ?`
		err = q.QueryRowContext(ctx, query, email).Scan(
			&user.ID, &user.Name, &user.Email, &user.Password, &user.Age, &user.CreatedAt, &user.UpdatedAt,
		)
	} else {
		query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
		err = q.QueryRowContext(ctx, query, email).Scan(
			&user.ID, &user.Name, &user.Email, &user.Age, &user.CreatedAt, &user.UpdatedAt,
		)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// buildFilterClause assembles the WHERE clause shared by Search and
// SearchCount. Substring filters use LIKE with the term wrapped in
// wildcards.
func buildFilterClause(filters model.SearchFilters) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filters.Name != "" {
		conditions = append(conditions, "name LIKE ?")
		args = append(args, "%"+filters.Name+"%")
	}
	if filters.Email != "" {
		conditions = append(conditions, "email LIKE ?")
		args = append(args, "%"+filters.Email+"%")
	}
	if filters.MinAge != nil {
		conditions = append(conditions, "age >= ?")
		args = append(args, *filters.MinAge)
	}
	if filters.MaxAge != nil {
		conditions = append(conditions, "age <= ?")
		args = append(args, *filters.MaxAge)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func collectUsers(rows *sql.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/userhub/userhub-go/internal/crypto"
	"github.com/userhub/userhub-go/internal/model"
	"github.com/userhub/userhub-go/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
)

// ValidationError aggregates every rule violated by a request, so the
// caller sees all problems in one pass.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid data: " + strings.Join(e.Messages, ", ")
}

// UserService implements user operations on top of the repository. Every
// multi-step write runs inside a single transaction with rollback on any
// failure path.
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns a page of users, newest first, plus the total row count.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Search returns users matching all supplied filters, newest first, plus
// the true total of matching rows regardless of any limit.
func (s *UserService) Search(ctx context.Context, filters model.SearchFilters) ([]model.User, int, error) {
	users, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.SearchCount(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Get retrieves a single user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create validates the request, checks email uniqueness, hashes the
// password and inserts the row, all inside one transaction. The created
// user is re-read after commit so generated fields are populated.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if msgs := req.Validate(); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	if _, err := s.repo.GetByEmailTx(ctx, tx, req.Email, false); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.InsertTx(ctx, tx, &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Age:      req.Age,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update. Only fields present in the request are
// validated and written; the password is re-hashed when supplied. A
// request naming no fields fails with ErrNoFieldsToUpdate.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest) (*model.User, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.repo.GetByIDTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if msgs := req.Validate(); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	if req.Email != nil {
		owner, err := s.repo.GetByEmailTx(ctx, tx, *req.Email, false)
		if err == nil && owner.ID != id {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	if !req.HasFields() {
		return nil, ErrNoFieldsToUpdate
	}

	patch := req
	if req.Password != nil {
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	if err := s.repo.UpdateTx(ctx, tx, id, patch); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Delete removes a user and returns the snapshot captured before the row
// was deleted.
func (s *UserService) Delete(ctx context.Context, id int64) (*model.User, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user, err := s.repo.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// The row can vanish between the in-transaction read and the DELETE
	// when a concurrent delete commits first; surface that as not-found
	// too.
	if err := s.repo.DeleteTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies an email/password pair. An unknown email and a
// wrong password both return ErrInvalidCredentials, so callers cannot
// probe which accounts exist. The password hash is stripped from the
// returned user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, email, true)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	user.Password = ""
	return user, nil
}

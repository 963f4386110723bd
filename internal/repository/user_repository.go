package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/pkg/storage"
)

// SQLiteUserRepository implements domain.UserRepository on the storage engine
type SQLiteUserRepository struct {
	engine     *storage.Engine
	logger     *slog.Logger
	bcryptCost int
}

// NewSQLiteUserRepository creates a new user repository. A bcryptCost of 0
// falls back to bcrypt.DefaultCost.
func NewSQLiteUserRepository(engine *storage.Engine, logger *slog.Logger, bcryptCost int) *SQLiteUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &SQLiteUserRepository{
		engine:     engine,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Create hashes the password with bcrypt and inserts the row, returning the
// new id. A duplicate email is rejected by the UNIQUE constraint and comes
// back wrapped in storage.ErrConstraint.
func (r *SQLiteUserRepository) Create(ctx context.Context, input domain.UserInput) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), r.bcryptCost)
	if err != nil {
		r.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return 0, fmt.Errorf("hash password: %w", err)
	}

	query := `
		INSERT INTO users (name, email, password)
		VALUES (?, ?, ?)
	`

	id, _, err := r.engine.Execute(ctx, query, input.Name, input.Email, string(hash))
	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", input.Email),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("create user: %w", err)
	}

	return id, nil
}

// GetByEmail retrieves a user by email. Matching is case-sensitive, exactly
// as stored.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, password, createdAt
		FROM users
		WHERE email = ?
	`

	rows, err := r.engine.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		return nil, domain.ErrNotFound
	}

	user, err := scanUser(rows)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetAll returns all users ordered by creation time descending. Diagnostic
// and bootstrap use only.
func (r *SQLiteUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, name, email, password, createdAt
		FROM users
		ORDER BY createdAt DESC, id DESC
	`

	rows, err := r.engine.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// VerifyCredentials looks the user up by email and compares the password
// against the stored bcrypt hash. Unknown email and wrong password both come
// back as domain.ErrNotFound so the caller cannot tell which half failed.
func (r *SQLiteUserRepository) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrNotFound
	}

	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(rows rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var createdAt string

	if err := rows.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
	); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = ts
	return user, nil
}

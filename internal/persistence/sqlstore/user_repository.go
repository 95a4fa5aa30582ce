package sqlstore

import (
	"context"
	"strings"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

var _ persistence.UserRepository = (*UserRepository)(nil)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a user repository backed by store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

const userColumns = `username, name, email, password_hash, role, created_at, updated_at`

// CreateUser inserts a new account. A taken username yields
// persistence.ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.Username) == "" || !user.Role.Valid() {
		return persistence.ErrConstraintViolation
	}
	_, err := r.store.exec(ctx, r.store.db,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role.String(),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.store.mapError(err)
}

// UpdateUser replaces the profile, credentials and role of an account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if !user.Role.Valid() {
		return persistence.ErrConstraintViolation
	}
	result, err := r.store.exec(ctx, r.store.db,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, updated_at = ? WHERE username = ?`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role.String(),
		formatTime(user.UpdatedAt),
		user.Username,
	)
	if err != nil {
		return r.store.mapError(err)
	}
	return requireAffected(result)
}

// GetUser retrieves an account by username.
func (r *UserRepository) GetUser(ctx context.Context, username string) (persistence.User, error) {
	row := r.store.queryRow(ctx, r.store.db, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.store.mapError(err)
	}
	return user, nil
}

// ListUsers returns every account ordered by username.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.store.query(ctx, r.store.db, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, r.store.mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, r.store.mapError(rows.Err())
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user               persistence.User
		role               string
		createdAt, updated string
	)
	if err := row.Scan(&user.Username, &user.Name, &user.Email, &user.PasswordHash, &role, &createdAt, &updated); err != nil {
		return persistence.User{}, err
	}

	var err error
	if user.Role, err = booking.ParseRole(role); err != nil {
		return persistence.User{}, err
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, username string) (persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) error
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// UserService orchestrates validation, authorization, and persistence for accounts.
type UserService struct {
	users  UserRepository
	hash   PasswordHasher
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service. A nil hasher uses
// DefaultArgon2idParams.
func NewUserService(users UserRepository, hash PasswordHasher, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = NewPasswordHasher(DefaultArgon2idParams)
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hash: hash, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal", params.Principal.Username,
		"username", params.Input.Username,
	)
	defer func() {
		logOutcome(ctx, logger, err, "user created", "role", user.Role)
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	user, err = s.create(ctx, params.Input)
	return
}

// ListUsers returns every account to administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storageFailure("ListUsers", err)
	}
	return users, nil
}

// EnsureAdmin creates the bootstrap administrator when the account does not
// exist yet. An existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (created bool, err error) {
	if s == nil || s.users == nil {
		return false, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "username", username)

	_, err = s.users.GetUser(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		logger.DebugContext(ctx, "bootstrap administrator already present")
		return false, nil
	case !errors.Is(err, persistence.ErrNotFound):
		return false, storageFailure("GetUser", err)
	}

	_, err = s.create(ctx, UserInput{
		Username: username,
		Name:     "Administrator",
		Email:    "",
		Password: password,
		Role:     booking.RoleAdmin,
	})
	logOutcome(ctx, logger, err, "bootstrap administrator created")
	return err == nil, err
}

func (s *UserService) create(ctx context.Context, input UserInput) (persistence.User, error) {
	input = normalizeUserInput(input)
	if vErr := validateUserInput(input); vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hashed, err := s.hash(input.Password)
	if err != nil {
		return persistence.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := persistence.User{
		Username:     input.Username,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashed,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.users == nil {
		return user, nil
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.User{}, ErrAlreadyExists
		}
		return persistence.User{}, storageFailure("CreateUser", err)
	}
	return user, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Username: strings.TrimSpace(input.Username),
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
		Role:     input.Role,
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Username == "" {
		vErr.add("username", "username is required")
	} else if strings.ContainsAny(input.Username, " \t\r\n") {
		vErr.add("username", "username must not contain whitespace")
	}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "email is invalid")
		}
	}
	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if !input.Role.Valid() {
		vErr.add("role", "role is invalid")
	}

	return vErr
}

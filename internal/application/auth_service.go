package application

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// CredentialStore exposes the account lookup required by the auth service.
type CredentialStore interface {
	GetUser(ctx context.Context, username string) (persistence.User, error)
}

// TokenRepository captures the persistence interactions for issued tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token persistence.AuthToken) error
	GetToken(ctx context.Context, tokenHash string) (persistence.AuthToken, error)
	RevokeToken(ctx context.Context, tokenHash string, revokedAt time.Time) error
	DeleteExpiredTokens(ctx context.Context, reference time.Time) (int64, error)
}

// AuthOptions tunes token issuance.
type AuthOptions struct {
	// Secret keys the HMAC under which tokens are stored. Required.
	Secret []byte
	// TTL is the token lifetime. Defaults to 24 hours.
	TTL time.Duration
	// Verify compares passwords. Defaults to VerifyPassword.
	Verify PasswordVerifier
	// TokenGenerator returns a fresh opaque token. Defaults to 32 random bytes.
	TokenGenerator func() (string, error)
	IDGenerator    func() string
	Now            func() time.Time
	Logger         *slog.Logger
}

// AuthService issues, validates and revokes login tokens.
type AuthService struct {
	credentials    CredentialStore
	tokens         TokenRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() (string, error)
	idGenerator    func() string
	now            func() time.Time
	secret         []byte
	ttl            time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(credentials CredentialStore, tokens TokenRepository, opts AuthOptions) *AuthService {
	if opts.Verify == nil {
		opts.Verify = VerifyPassword
	}
	if opts.TokenGenerator == nil {
		opts.TokenGenerator = randomToken
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = func() string { return "" }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		tokens:         tokens,
		verifyPassword: opts.Verify,
		tokenGenerator: opts.TokenGenerator,
		idGenerator:    opts.IDGenerator,
		now:            opts.Now,
		secret:         opts.Secret,
		ttl:            opts.TTL,
		logger:         defaultLogger(opts.Logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil || s.tokens == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	username := strings.TrimSpace(params.Username)
	logger := s.loggerWith(ctx, "Authenticate", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "authentication succeeded", "expires_at", result.ExpiresAt)
	}()

	if username == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.credentials.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = storageFailure("GetUser", err)
		return
	}

	if user.Role == booking.RoleInactive {
		err = ErrAccountDisabled
		return
	}
	if verr := s.verifyPassword(user.PasswordHash, params.Password); verr != nil {
		err = ErrInvalidCredentials
		return
	}

	var token string
	token, err = s.tokenGenerator()
	if err != nil {
		err = fmt.Errorf("generate token: %w", err)
		return
	}

	now := s.now()
	if _, err = s.tokens.DeleteExpiredTokens(ctx, now); err != nil {
		err = storageFailure("DeleteExpiredTokens", err)
		return
	}

	record := persistence.AuthToken{
		ID:        s.idGenerator(),
		Username:  user.Username,
		TokenHash: s.hashToken(token),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err = s.tokens.CreateToken(ctx, record); err != nil {
		err = storageFailure("CreateToken", err)
		return
	}

	result = AuthenticateResult{User: user, Token: token, ExpiresAt: record.ExpiresAt}
	return
}

// ValidateSession resolves a token to the principal it was issued to.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil || s.tokens == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
			return
		}
		logger.DebugContext(ctx, "session validated", "username", principal.Username)
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var record persistence.AuthToken
	record, err = s.tokens.GetToken(ctx, s.hashToken(trimmed))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = storageFailure("GetToken", err)
		return
	}

	if record.RevokedAt != nil {
		err = ErrSessionRevoked
		return
	}
	if !record.ExpiresAt.After(s.now()) {
		err = ErrSessionExpired
		return
	}

	var user persistence.User
	user, err = s.credentials.GetUser(ctx, record.Username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = storageFailure("GetUser", err)
		return
	}
	if user.Role == booking.RoleInactive {
		err = ErrAccountDisabled
		return
	}

	principal = Principal{Username: user.Username, Role: user.Role}
	return
}

// RevokeSession invalidates an issued token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.tokens == nil {
		return fmt.Errorf("token repository not configured")
	}

	logger := s.loggerWith(ctx, "RevokeSession")
	defer func() {
		logOutcome(ctx, logger, err, "session revoked")
	}()

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	if err = s.tokens.RevokeToken(ctx, s.hashToken(trimmed), s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = storageFailure("RevokeToken", err)
	}
	return
}

func (s *AuthService) hashToken(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

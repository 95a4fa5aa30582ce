package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-reservation/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewReservationService builds a reservation service over the harness
// repositories. Days are counted in UTC.
func (f *ServiceFactory) NewReservationService(h *SQLiteHarness) *application.ReservationService {
	return application.NewReservationService(application.ReservationServiceDeps{
		Reservations: h.Reservations,
		Settings:     h.Catalog,
		Periods:      h.Catalog,
		Rooms:        h.Rooms,
		IDGenerator:  f.IDGenerator.NextFunc(),
		Now:          f.Clock.NowFunc(),
		Location:     time.UTC,
		Logger:       f.Logger,
	})
}

// NewRoomService builds a room service.
func (f *ServiceFactory) NewRoomService(rooms application.RoomRepository) *application.RoomService {
	return application.NewRoomServiceWithLogger(rooms, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewCatalogService builds a catalog service.
func (f *ServiceFactory) NewCatalogService(catalog application.CatalogRepository) *application.CatalogService {
	return application.NewCatalogService(catalog, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewUserService builds a user service. Passwords are hashed with cheap
// argon2id parameters.
func (f *ServiceFactory) NewUserService(users application.UserRepository) *application.UserService {
	return application.NewUserService(users, application.NewPasswordHasher(FastArgon2idParams), f.Clock.NowFunc(), f.Logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials application.CredentialStore
	Tokens      application.TokenRepository
	Secret      []byte
	TTL         time.Duration
}

// NewAuthService builds an auth service whose tokens come from the factory
// generator.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	secret := deps.Secret
	if len(secret) == 0 {
		secret = []byte("testfixtures-secret")
	}
	return application.NewAuthService(deps.Credentials, deps.Tokens, application.AuthOptions{
		Secret: secret,
		TTL:    deps.TTL,
		TokenGenerator: func() (string, error) {
			return "token-" + f.IDGenerator.Next(), nil
		},
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      f.Logger,
	})
}

// FastArgon2idParams keeps password hashing quick in tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

package persistence

import (
	"context"
	"time"

	"github.com/example/room-reservation/internal/booking"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// PeriodRepository stores opening periods.
type PeriodRepository interface {
	CreatePeriod(ctx context.Context, period Period) error
	ListPeriods(ctx context.Context) ([]Period, error)
	DeletePeriod(ctx context.Context, id string) error
}

// TermRepository stores terms. Creating a current term clears the flag on
// every other term.
type TermRepository interface {
	CreateTerm(ctx context.Context, term Term) error
	ListTerms(ctx context.Context) ([]Term, error)
}

// SettingRepository stores admission limits. GetSetting returns ErrNotFound
// when the row is absent.
type SettingRepository interface {
	GetSetting(ctx context.Context, key booking.SettingKey) (Setting, error)
	PutSetting(ctx context.Context, setting Setting) error
	DeleteSetting(ctx context.Context, key booking.SettingKey) error
	ListSettings(ctx context.Context) ([]Setting, error)
}

// ReservationFilter narrows reservation listings. Zero values do not filter.
type ReservationFilter struct {
	Username string
	RoomID   string
	From     *time.Time
	To       *time.Time
}

// ReservationUpdate is a partial update of a reservation header. A nil field
// is left unchanged. Status, when set, is applied to every slot. An empty
// Username addresses the reservation regardless of owner.
type ReservationUpdate struct {
	ReservationID string
	Username      string
	Title         *string
	Note          *string
	Privacy       *booking.Privacy
	Status        *booking.SlotStatus
	UpdatedAt     time.Time
}

// SlotUpdate changes the status of a single slot. An empty Username
// addresses the slot regardless of owner.
type SlotUpdate struct {
	ReservationID string
	SlotID        string
	Username      string
	Status        booking.SlotStatus
	UpdatedAt     time.Time
}

// ReservationRepository stores reservation headers and their slots.
// CreateReservation writes the header and every slot in one transaction.
// Update methods return the number of rows matched so callers can detect
// rows they do not own.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	CountReservationsCreated(ctx context.Context, username string, from, to time.Time) (int, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	UpdateReservation(ctx context.Context, update ReservationUpdate) (int64, error)
	UpdateSlot(ctx context.Context, update SlotUpdate) (int64, error)
}

// TokenRepository stores authentication tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token AuthToken) error
	GetToken(ctx context.Context, tokenHash string) (AuthToken, error)
	RevokeToken(ctx context.Context, tokenHash string, revokedAt time.Time) error
	DeleteExpiredTokens(ctx context.Context, reference time.Time) (int64, error)
}

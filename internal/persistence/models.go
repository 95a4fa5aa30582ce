package persistence

import (
	"time"

	"github.com/example/room-reservation/internal/booking"
)

// User is an account keyed by its unique username.
type User struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         booking.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room is a bookable room managed by administrators.
type Room struct {
	ID        string
	Name      string
	Status    booking.RoomStatus
	Capacity  int
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Term is an administrative epoch such as an academic term. It is stored in
// the sessions table.
type Term struct {
	ID        string
	Name      string
	Start     time.Time
	End       time.Time
	IsCurrent bool
	CreatedAt time.Time
}

// Period is a recurring daily opening interval. Start and End are offsets
// from midnight.
type Period struct {
	ID    string
	Name  string
	Start time.Duration
	End   time.Duration
}

// Setting is a named admission limit stored as text.
type Setting struct {
	Key       booking.SettingKey
	Value     string
	UpdatedAt time.Time
}

// Reservation is a booking header together with its slots.
type Reservation struct {
	ID        string
	Username  string
	RoomID    string
	SessionID *string
	Privacy   booking.Privacy
	Title     string
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Slots     []TimeSlot
}

// TimeSlot is one concrete interval of a reservation. Username and RoomID
// always equal the owning reservation's values.
type TimeSlot struct {
	ID            string
	ReservationID string
	Username      string
	RoomID        string
	Start         time.Time
	End           time.Time
	Status        booking.SlotStatus
}

// AuthToken is an issued login token. Only the keyed hash of the token is
// persisted.
type AuthToken struct {
	ID        string
	Username  string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

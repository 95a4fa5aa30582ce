package application

import (
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	Username string
	Role     booking.Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == booking.RoleAdmin
}

// SlotRequest is one requested interval of an advanced reservation.
type SlotRequest struct {
	Start time.Time
	End   time.Time
}

// CreateReservationParams wraps a single-slot reservation request.
type CreateReservationParams struct {
	Principal Principal
	RoomID    string
	Title     string
	Note      string
	SessionID *string
	Start     time.Time
	End       time.Time
}

// CreateReservationResult identifies the rows written by a simple creation.
type CreateReservationResult struct {
	ReservationID string
	SlotID        string
	Status        booking.SlotStatus
}

// CreateAdvancedReservationParams wraps a multi-slot reservation request.
type CreateAdvancedReservationParams struct {
	Principal Principal
	RoomID    string
	Title     string
	Note      string
	SessionID *string
	Slots     []SlotRequest
}

// PatchReservationParams wraps a partial update of a reservation header.
type PatchReservationParams struct {
	Principal     Principal
	ReservationID string
	Patch         booking.Patch
}

// PatchSlotParams wraps a partial update of a single slot.
type PatchSlotParams struct {
	Principal     Principal
	ReservationID string
	SlotID        string
	Patch         booking.Patch
}

// ListReservationsParams narrows a reservation listing. Username is only
// honoured for administrators; everybody else sees their own reservations.
type ListReservationsParams struct {
	Principal Principal
	Username  string
	RoomID    string
	From      *time.Time
	To        *time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Status   booking.RoomStatus
	Capacity int
	Type     string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// PeriodInput captures an opening period in hh:mm:ss form.
type PeriodInput struct {
	Name  string
	Start string
	End   string
}

// TermInput captures a term definition.
type TermInput struct {
	Name      string
	Start     time.Time
	End       time.Time
	IsCurrent bool
}

// UserInput captures caller provided account attributes.
type UserInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     booking.Role
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthenticateResult carries the issued token. Token is only available at
// issue time; storage keeps a keyed hash of it.
type AuthenticateResult struct {
	User      persistence.User
	Token     string
	ExpiresAt time.Time
}

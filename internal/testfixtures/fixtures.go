package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

// referenceTime is a Monday morning before the first opening period.
var referenceTime = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// At returns the reference day shifted by days at hour:minute UTC.
func At(days, hour, minute int) time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d+days, hour, minute, 0, 0, time.UTC)
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account.
type UserFixture struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         booking.Role
	CreatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a basic-role user with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	username := fmt.Sprintf("user%03d", idx)
	fixture := UserFixture{
		Username:     username,
		Name:         fmt.Sprintf("User %03d", idx),
		Email:        username + "@example.com",
		PasswordHash: "hash-" + username,
		Role:         booking.RoleBasic,
		CreatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserRole overrides the role.
func WithUserRole(role booking.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserPasswordHash overrides the stored hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Persistence converts the fixture into its stored form.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		Username:     f.Username,
		Name:         f.Name,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		Role:         f.Role,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{Username: f.Username, Role: f.Role}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic room.
type RoomFixture struct {
	ID       string
	Name     string
	Status   booking.RoomStatus
	Capacity int
	Type     string
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns an available room with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:       fmt.Sprintf("room-%03d", idx),
		Name:     fmt.Sprintf("Room %03d", idx),
		Status:   booking.RoomAvailable,
		Capacity: 8,
		Type:     "seminar",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomStatus overrides the availability flag.
func WithRoomStatus(status booking.RoomStatus) RoomOption {
	return func(f *RoomFixture) {
		f.Status = status
	}
}

// Persistence converts the fixture into its stored form.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Status:    f.Status,
		Capacity:  f.Capacity,
		Type:      f.Type,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// --------------------------- Opening periods ---------------------------

// DefaultPeriods returns a morning and an afternoon period that meet at
// noon.
func DefaultPeriods() []persistence.Period {
	return []persistence.Period{
		{ID: "period-am", Name: "Morning", Start: 9 * time.Hour, End: 12 * time.Hour},
		{ID: "period-pm", Name: "Afternoon", Start: 12 * time.Hour, End: 17 * time.Hour},
	}
}

// ------------------------- Reservation fixtures -------------------------

// ReservationFixture is a deterministic reservation with one slot.
type ReservationFixture struct {
	ID        string
	SlotID    string
	Username  string
	RoomID    string
	Title     string
	Privacy   booking.Privacy
	Status    booking.SlotStatus
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a confirmed 09:00-10:00 reservation on the
// day after the reference time.
func NewReservationFixture(username, roomID string, opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	fixture := ReservationFixture{
		ID:        fmt.Sprintf("res-%03d", idx),
		SlotID:    fmt.Sprintf("slot-%03d", idx),
		Username:  username,
		RoomID:    roomID,
		Title:     fmt.Sprintf("Reservation %03d", idx),
		Privacy:   booking.PrivacyPublic,
		Status:    booking.StatusConfirmed,
		Start:     At(1, 9, 0),
		End:       At(1, 10, 0),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation and slot IDs.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
		f.SlotID = id + "-slot"
	}
}

// WithReservationInterval overrides the slot interval.
func WithReservationInterval(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// WithReservationStatus overrides the slot status.
func WithReservationStatus(status booking.SlotStatus) ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = status
	}
}

// WithReservationCreatedAt overrides the creation time.
func WithReservationCreatedAt(t time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.CreatedAt = t
	}
}

// Persistence converts the fixture into its stored form.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:        f.ID,
		Username:  f.Username,
		RoomID:    f.RoomID,
		Privacy:   f.Privacy,
		Title:     f.Title,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
		Slots: []persistence.TimeSlot{{
			ID:            f.SlotID,
			ReservationID: f.ID,
			Username:      f.Username,
			RoomID:        f.RoomID,
			Start:         f.Start,
			End:           f.End,
			Status:        f.Status,
		}},
	}
}

// ------------------------------- Seeding -------------------------------

// SeedUsers inserts users into the harness database.
func (h *SQLiteHarness) SeedUsers(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, u := range users {
		if err := h.Users.CreateUser(context.Background(), u.Persistence()); err != nil {
			tb.Fatalf("seed user %s: %v", u.Username, err)
		}
	}
}

// SeedRooms inserts rooms into the harness database.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, r := range rooms {
		if err := h.Rooms.CreateRoom(context.Background(), r.Persistence()); err != nil {
			tb.Fatalf("seed room %s: %v", r.ID, err)
		}
	}
}

// SeedPeriods inserts opening periods into the harness database.
func (h *SQLiteHarness) SeedPeriods(tb testing.TB, periods ...persistence.Period) {
	tb.Helper()
	for _, p := range periods {
		if err := h.Catalog.CreatePeriod(context.Background(), p); err != nil {
			tb.Fatalf("seed period %s: %v", p.ID, err)
		}
	}
}

// SeedSetting stores an admission limit in the harness database.
func (h *SQLiteHarness) SeedSetting(tb testing.TB, key booking.SettingKey, value string) {
	tb.Helper()
	err := h.Catalog.PutSetting(context.Background(), persistence.Setting{Key: key, Value: value, UpdatedAt: referenceTime})
	if err != nil {
		tb.Fatalf("seed setting %s: %v", key, err)
	}
}

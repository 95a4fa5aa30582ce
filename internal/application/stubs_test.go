package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// memoryReservations is an in-memory ReservationStore that enforces the
// live-slot uniqueness rule of the SQL schema.
type memoryReservations struct {
	mu           sync.Mutex
	reservations map[string]persistence.Reservation
	order        []string

	createErr error
	countErr  error
	creates   int
}

func newMemoryReservations() *memoryReservations {
	return &memoryReservations{reservations: make(map[string]persistence.Reservation)}
}

func (m *memoryReservations) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	for _, slot := range reservation.Slots {
		if m.liveSlotExistsLocked(slot) {
			return fmt.Errorf("%w: time_slots", persistence.ErrDuplicate)
		}
	}
	if _, ok := m.reservations[reservation.ID]; ok {
		return fmt.Errorf("%w: reservations", persistence.ErrDuplicate)
	}
	m.reservations[reservation.ID] = cloneReservation(reservation)
	m.order = append(m.order, reservation.ID)
	return nil
}

func (m *memoryReservations) liveSlotExistsLocked(candidate persistence.TimeSlot) bool {
	for _, existing := range m.reservations {
		for _, slot := range existing.Slots {
			live := slot.Status == booking.StatusPending || slot.Status == booking.StatusConfirmed
			if live && slot.RoomID == candidate.RoomID && slot.Start.Equal(candidate.Start) && slot.End.Equal(candidate.End) {
				return true
			}
		}
	}
	return false
}

func (m *memoryReservations) CountReservationsCreated(ctx context.Context, username string, from, to time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}
	count := 0
	for _, r := range m.reservations {
		if r.Username == username && !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (m *memoryReservations) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return cloneReservation(r), nil
}

func (m *memoryReservations) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []persistence.Reservation
	for _, id := range m.order {
		r := m.reservations[id]
		if filter.Username != "" && r.Username != filter.Username {
			continue
		}
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		out = append(out, cloneReservation(r))
	}
	return out, nil
}

func (m *memoryReservations) UpdateReservation(ctx context.Context, update persistence.ReservationUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[update.ReservationID]
	if !ok || (update.Username != "" && r.Username != update.Username) {
		return 0, nil
	}
	if update.Title != nil {
		r.Title = *update.Title
	}
	if update.Note != nil {
		r.Note = *update.Note
	}
	if update.Privacy != nil {
		r.Privacy = *update.Privacy
	}
	if update.Status != nil {
		for i := range r.Slots {
			r.Slots[i].Status = *update.Status
		}
	}
	r.UpdatedAt = update.UpdatedAt
	m.reservations[r.ID] = r
	return 1, nil
}

func (m *memoryReservations) UpdateSlot(ctx context.Context, update persistence.SlotUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[update.ReservationID]
	if !ok {
		return 0, nil
	}
	for i := range r.Slots {
		slot := r.Slots[i]
		if slot.ID != update.SlotID || (update.Username != "" && slot.Username != update.Username) {
			continue
		}
		r.Slots[i].Status = update.Status
		r.UpdatedAt = update.UpdatedAt
		m.reservations[r.ID] = r
		return 1, nil
	}
	return 0, nil
}

func (m *memoryReservations) createCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func cloneReservation(r persistence.Reservation) persistence.Reservation {
	slots := make([]persistence.TimeSlot, len(r.Slots))
	copy(slots, r.Slots)
	r.Slots = slots
	return r
}

type settingsStub struct {
	values map[booking.SettingKey]string
	err    error
}

func (s *settingsStub) GetSetting(ctx context.Context, key booking.SettingKey) (persistence.Setting, error) {
	if s.err != nil {
		return persistence.Setting{}, s.err
	}
	value, ok := s.values[key]
	if !ok {
		return persistence.Setting{}, persistence.ErrNotFound
	}
	return persistence.Setting{Key: key, Value: value}, nil
}

type periodsStub struct {
	periods []persistence.Period
	err     error
}

func (p *periodsStub) ListPeriods(ctx context.Context) ([]persistence.Period, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.periods, nil
}

type roomsStub struct {
	rooms map[string]persistence.Room
	err   error
}

func (r *roomsStub) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if r.err != nil {
		return persistence.Room{}, r.err
	}
	room, ok := r.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// manualClock is a settable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (s *sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

package application

import (
	"context"
	"errors"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// RoomReader loads a single room.
type RoomReader interface {
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
}

// AvailabilityChecker answers whether a room accepts reservations.
type AvailabilityChecker struct {
	rooms RoomReader
}

// NewAvailabilityChecker wraps a room reader.
func NewAvailabilityChecker(rooms RoomReader) *AvailabilityChecker {
	return &AvailabilityChecker{rooms: rooms}
}

// RoomIsAvailable reports whether the room exists and is marked available.
// An unknown room is not available; only storage failures are errors.
func (c *AvailabilityChecker) RoomIsAvailable(ctx context.Context, roomID string) (bool, error) {
	if c == nil || c.rooms == nil || roomID == "" {
		return false, nil
	}
	room, err := c.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return room.Status == booking.RoomAvailable, nil
}

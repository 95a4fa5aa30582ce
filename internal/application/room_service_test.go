package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

type roomRepoStub struct {
	createErr error
	created   persistence.Room

	getRoom persistence.Room
	getErr  error

	updateErr error
	updated   persistence.Room

	deleteErr error
	deletedID string

	list    []persistence.Room
	listErr error
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room persistence.Room) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = room
	return nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if r.getErr != nil {
		return persistence.Room{}, r.getErr
	}
	if r.getRoom.ID == "" || r.getRoom.ID != id {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return r.getRoom, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = room
	return nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]persistence.Room, len(r.list))
	copy(out, r.list)
	return out, nil
}

var (
	adminPrincipal = Principal{Username: "root", Role: booking.RoleAdmin}
	basicPrincipal = Principal{Username: "alice", Role: booking.RoleBasic}
)

func TestRoomService_CreateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: basicPrincipal,
			Input:     RoomInput{Name: "Seminar 1", Capacity: 10},
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewRoomService(nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "   ", Status: "broken", Capacity: -1},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "status", "capacity"} {
			if vErr.Reason(field) == "" {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("persists rooms for administrators", func(t *testing.T) {
		repo := &roomRepoStub{}
		now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)
		svc := NewRoomService(repo, func() string { return "room-1" }, func() time.Time { return now })

		created, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "  Seminar 1  ", Capacity: 25, Type: " seminar "},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if repo.created.ID != "room-1" {
			t.Fatalf("expected repository to receive generated ID, got %q", repo.created.ID)
		}
		if repo.created.Name != "Seminar 1" || repo.created.Type != "seminar" {
			t.Fatalf("expected trimmed attributes, got %#v", repo.created)
		}
		if repo.created.Status != booking.RoomAvailable {
			t.Fatalf("expected default status available, got %s", repo.created.Status)
		}
		if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
			t.Fatalf("expected timestamps from clock, got %#v", created)
		}
	})

	t.Run("maps duplicate names", func(t *testing.T) {
		repo := &roomRepoStub{createErr: fmt.Errorf("%w: rooms.name", persistence.ErrDuplicate)}
		svc := NewRoomService(repo, func() string { return "room-1" }, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "Seminar 1"},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestRoomService_UpdateRoom(t *testing.T) {
	existing := persistence.Room{
		ID:        "room-1",
		Name:      "Seminar 1",
		Status:    booking.RoomAvailable,
		Capacity:  20,
		CreatedAt: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("marks a room unavailable", func(t *testing.T) {
		repo := &roomRepoStub{getRoom: existing}
		now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
		svc := NewRoomService(repo, nil, func() time.Time { return now })

		updated, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "room-1",
			Input:     RoomInput{Name: "Seminar 1", Status: booking.RoomUnavailable, Capacity: 20},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.Status != booking.RoomUnavailable || repo.updated.Status != booking.RoomUnavailable {
			t.Fatalf("expected unavailable status, got %#v", updated)
		}
		if !updated.CreatedAt.Equal(existing.CreatedAt) || !updated.UpdatedAt.Equal(now) {
			t.Fatalf("unexpected timestamps: %#v", updated)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil, nil)

		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "missing",
			Input:     RoomInput{Name: "x"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{getRoom: existing}, nil, nil)

		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{Principal: basicPrincipal, RoomID: "room-1"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestRoomService_DeleteRoom(t *testing.T) {
	t.Run("deletes unreferenced rooms", func(t *testing.T) {
		repo := &roomRepoStub{}
		svc := NewRoomService(repo, nil, nil)

		if err := svc.DeleteRoom(context.Background(), adminPrincipal, "room-1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != "room-1" {
			t.Fatalf("expected room-1 to be deleted, got %q", repo.deletedID)
		}
	})

	t.Run("referenced rooms are rejected", func(t *testing.T) {
		repo := &roomRepoStub{deleteErr: fmt.Errorf("%w: reservations.room_id", persistence.ErrForeignKeyViolation)}
		svc := NewRoomService(repo, nil, nil)

		err := svc.DeleteRoom(context.Background(), adminPrincipal, "room-1")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Reason("room_id") == "" {
			t.Fatalf("expected room_id validation error, got %v", err)
		}
	})

	t.Run("missing rooms", func(t *testing.T) {
		repo := &roomRepoStub{deleteErr: persistence.ErrNotFound}
		svc := NewRoomService(repo, nil, nil)

		if err := svc.DeleteRoom(context.Background(), adminPrincipal, "room-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil, nil)

		if err := svc.DeleteRoom(context.Background(), basicPrincipal, "room-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestRoomService_ListRooms(t *testing.T) {
	t.Run("sorts by name", func(t *testing.T) {
		repo := &roomRepoStub{list: []persistence.Room{
			{ID: "3", Name: "lab"},
			{ID: "1", Name: "Auditorium"},
			{ID: "2", Name: "Lab"},
		}}
		svc := NewRoomService(repo, nil, nil)

		rooms, err := svc.ListRooms(context.Background(), basicPrincipal)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		got := []string{rooms[0].ID, rooms[1].ID, rooms[2].ID}
		want := []string{"1", "2", "3"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	})

	t.Run("wraps storage failures", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{listErr: errors.New("boom")}, nil, nil)

		_, err := svc.ListRooms(context.Background(), basicPrincipal)
		var sErr *StorageError
		if !errors.As(err, &sErr) {
			t.Fatalf("expected StorageError, got %v", err)
		}
	})
}

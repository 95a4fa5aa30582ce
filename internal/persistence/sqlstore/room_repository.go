package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

var _ persistence.RoomRepository = (*RoomRepository)(nil)

// RoomRepository implements persistence.RoomRepository.
type RoomRepository struct {
	store *Store
}

// NewRoomRepository creates a room repository backed by store.
func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

const roomColumns = `id, name, status, capacity, type, created_at, updated_at`

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || !room.Status.Valid() || room.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	_, err := r.store.exec(ctx, r.store.db,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		string(room.Status),
		room.Capacity,
		room.Type,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.store.mapError(err)
}

// UpdateRoom replaces the mutable attributes of an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || !room.Status.Valid() || room.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	result, err := r.store.exec(ctx, r.store.db,
		`UPDATE rooms SET name = ?, status = ?, capacity = ?, type = ?, updated_at = ? WHERE id = ?`,
		room.Name,
		string(room.Status),
		room.Capacity,
		room.Type,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.store.mapError(err)
	}
	return requireAffected(result)
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.store.queryRow(ctx, r.store.db, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, r.store.mapError(err)
	}
	return room, nil
}

// ListRooms returns every room ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.store.query(ctx, r.store.db, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, r.store.mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Rooms referenced by reservations cannot be
// deleted and yield persistence.ErrForeignKeyViolation.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.store.exec(ctx, r.store.db, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return r.store.mapError(err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room               persistence.Room
		status             string
		createdAt, updated string
	)
	if err := row.Scan(&room.ID, &room.Name, &status, &room.Capacity, &room.Type, &createdAt, &updated); err != nil {
		return persistence.Room{}, err
	}
	room.Status = booking.RoomStatus(status)

	var err error
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

var _ persistence.ReservationRepository = (*ReservationRepository)(nil)

// ReservationRepository implements persistence.ReservationRepository.
type ReservationRepository struct {
	store *Store
}

// NewReservationRepository creates a reservation repository backed by store.
func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

const (
	reservationColumns = `id, username, room_id, session_id, privacy, title, note, created_at, updated_at`
	slotColumns        = `id, reservation_id, username, room_id, start_time, end_time, status`
)

// CreateReservation writes the header and all of its slots atomically. A
// slot colliding with a live slot for the same room and interval yields
// persistence.ErrDuplicate and nothing is written.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if len(reservation.Slots) == 0 {
		return persistence.ErrConstraintViolation
	}

	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		var sessionID any
		if reservation.SessionID != nil {
			sessionID = *reservation.SessionID
		}
		if _, err := r.store.exec(ctx, tx,
			`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reservation.ID,
			reservation.Username,
			reservation.RoomID,
			sessionID,
			string(reservation.Privacy),
			reservation.Title,
			reservation.Note,
			formatTime(reservation.CreatedAt),
			formatTime(reservation.UpdatedAt),
		); err != nil {
			return r.store.mapError(err)
		}

		for _, slot := range reservation.Slots {
			if slot.ReservationID != reservation.ID || slot.Username != reservation.Username || slot.RoomID != reservation.RoomID {
				return fmt.Errorf("%w: slot %s does not match its reservation", persistence.ErrConstraintViolation, slot.ID)
			}
			if _, err := r.store.exec(ctx, tx,
				`INSERT INTO time_slots (`+slotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				slot.ID,
				slot.ReservationID,
				slot.Username,
				slot.RoomID,
				formatTime(slot.Start),
				formatTime(slot.End),
				string(slot.Status),
			); err != nil {
				return r.store.mapError(err)
			}
		}
		return nil
	})
}

// CountReservationsCreated counts headers owned by username whose creation
// time falls in [from, to).
func (r *ReservationRepository) CountReservationsCreated(ctx context.Context, username string, from, to time.Time) (int, error) {
	var count int
	err := r.store.queryRow(ctx, r.store.db,
		`SELECT COUNT(*) FROM reservations WHERE username = ? AND created_at >= ? AND created_at < ?`,
		username,
		formatTime(from),
		formatTime(to),
	).Scan(&count)
	if err != nil {
		return 0, r.store.mapError(err)
	}
	return count, nil
}

// GetReservation returns a header with its slots ordered by start.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := r.store.queryRow(ctx, r.store.db, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, r.store.mapError(err)
	}

	slots, err := r.loadSlots(ctx, []string{reservation.ID})
	if err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Slots = slots[reservation.ID]
	return reservation, nil
}

// ListReservations returns headers matching filter, newest first. From and
// To keep reservations with at least one slot overlapping [From, To).
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Username != "" {
		conditions = append(conditions, "r.username = ?")
		args = append(args, filter.Username)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "r.room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.From != nil || filter.To != nil {
		overlap := "EXISTS (SELECT 1 FROM time_slots s WHERE s.reservation_id = r.id"
		if filter.From != nil {
			overlap += " AND s.end_time > ?"
			args = append(args, formatTime(*filter.From))
		}
		if filter.To != nil {
			overlap += " AND s.start_time < ?"
			args = append(args, formatTime(*filter.To))
		}
		conditions = append(conditions, overlap+")")
	}

	query := `SELECT r.id, r.username, r.room_id, r.session_id, r.privacy, r.title, r.note, r.created_at, r.updated_at FROM reservations r`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id"

	rows, err := r.store.query(ctx, r.store.db, query, args...)
	if err != nil {
		return nil, r.store.mapError(err)
	}

	var (
		reservations []persistence.Reservation
		ids          []string
	)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reservations = append(reservations, reservation)
		ids = append(ids, reservation.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, r.store.mapError(err)
	}
	rows.Close()

	if len(ids) == 0 {
		return reservations, nil
	}
	slots, err := r.loadSlots(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reservations {
		reservations[i].Slots = slots[reservations[i].ID]
	}
	return reservations, nil
}

// UpdateReservation applies a partial header update and, when Status is
// set, moves every slot to that status. It returns the number of headers
// matched, which is zero when the reservation does not exist or is owned by
// someone else.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, update persistence.ReservationUpdate) (int64, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(update.UpdatedAt)}
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *update.Note)
	}
	if update.Privacy != nil {
		sets = append(sets, "privacy = ?")
		args = append(args, string(*update.Privacy))
	}

	where := "id = ?"
	args = append(args, update.ReservationID)
	if update.Username != "" {
		where += " AND username = ?"
		args = append(args, update.Username)
	}

	var affected int64
	err := r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.store.exec(ctx, tx, `UPDATE reservations SET `+strings.Join(sets, ", ")+` WHERE `+where, args...)
		if err != nil {
			return r.store.mapError(err)
		}
		if affected, err = result.RowsAffected(); err != nil {
			return err
		}
		if affected == 0 || update.Status == nil {
			return nil
		}
		_, err = r.store.exec(ctx, tx,
			`UPDATE time_slots SET status = ? WHERE reservation_id = ?`,
			string(*update.Status),
			update.ReservationID,
		)
		return r.store.mapError(err)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// UpdateSlot changes the status of one slot and refreshes the owning
// header's update time. It returns the number of slots matched.
func (r *ReservationRepository) UpdateSlot(ctx context.Context, update persistence.SlotUpdate) (int64, error) {
	query := `UPDATE time_slots SET status = ? WHERE id = ? AND reservation_id = ?`
	args := []any{string(update.Status), update.SlotID, update.ReservationID}
	if update.Username != "" {
		query += " AND username = ?"
		args = append(args, update.Username)
	}

	var affected int64
	err := r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.store.exec(ctx, tx, query, args...)
		if err != nil {
			return r.store.mapError(err)
		}
		if affected, err = result.RowsAffected(); err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		_, err = r.store.exec(ctx, tx,
			`UPDATE reservations SET updated_at = ? WHERE id = ?`,
			formatTime(update.UpdatedAt),
			update.ReservationID,
		)
		return r.store.mapError(err)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r *ReservationRepository) loadSlots(ctx context.Context, reservationIDs []string) (map[string][]persistence.TimeSlot, error) {
	args := make([]any, len(reservationIDs))
	for i, id := range reservationIDs {
		args[i] = id
	}

	rows, err := r.store.query(ctx, r.store.db,
		`SELECT `+slotColumns+` FROM time_slots WHERE reservation_id IN (`+placeholders(len(args))+`) ORDER BY start_time, id`,
		args...,
	)
	if err != nil {
		return nil, r.store.mapError(err)
	}
	defer rows.Close()

	slots := make(map[string][]persistence.TimeSlot, len(reservationIDs))
	for rows.Next() {
		var (
			slot               persistence.TimeSlot
			start, end, status string
		)
		if err := rows.Scan(&slot.ID, &slot.ReservationID, &slot.Username, &slot.RoomID, &start, &end, &status); err != nil {
			return nil, err
		}
		slot.Status = booking.SlotStatus(status)
		if slot.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if slot.End, err = parseTime(end); err != nil {
			return nil, err
		}
		slots[slot.ReservationID] = append(slots[slot.ReservationID], slot)
	}
	return slots, r.store.mapError(rows.Err())
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation        persistence.Reservation
		sessionID          sql.NullString
		privacy            string
		createdAt, updated string
	)
	if err := row.Scan(
		&reservation.ID,
		&reservation.Username,
		&reservation.RoomID,
		&sessionID,
		&privacy,
		&reservation.Title,
		&reservation.Note,
		&createdAt,
		&updated,
	); err != nil {
		return persistence.Reservation{}, err
	}
	if sessionID.Valid {
		value := sessionID.String
		reservation.SessionID = &value
	}
	reservation.Privacy = booking.Privacy(privacy)

	var err error
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

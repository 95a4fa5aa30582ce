package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// Rejection reasons reported by the admission checks.
const (
	ReasonInvalidTimeRange = "invalid time range"
	ReasonInPast           = "cannot reserve in the past"
	ReasonTooFar           = "too far in the future"
	ReasonTooLong          = "too long"
	ReasonDailyLimit       = "exceeded daily limit"
	ReasonNotPeriods       = "not a combination of periods"
	ReasonRoomUnavailable  = "room not available"
)

// Minimum roles and auto-approval thresholds of the two creation paths.
const (
	simpleMinRole        = booking.RoleRestricted
	simpleApprovalRole   = booking.RoleGuest
	advancedMinRole      = booking.RoleBasic
	advancedApprovalRole = booking.RoleBasic
)

// ReservationStore captures the persistence operations needed by the service.
type ReservationStore interface {
	CreateReservation(ctx context.Context, reservation persistence.Reservation) error
	CountReservationsCreated(ctx context.Context, username string, from, to time.Time) (int, error)
	GetReservation(ctx context.Context, id string) (persistence.Reservation, error)
	ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
	UpdateReservation(ctx context.Context, update persistence.ReservationUpdate) (int64, error)
	UpdateSlot(ctx context.Context, update persistence.SlotUpdate) (int64, error)
}

// PeriodLister loads every configured opening period.
type PeriodLister interface {
	ListPeriods(ctx context.Context) ([]persistence.Period, error)
}

// ReservationServiceDeps wires a ReservationService.
type ReservationServiceDeps struct {
	Reservations ReservationStore
	Settings     SettingReader
	Periods      PeriodLister
	Rooms        RoomReader
	IDGenerator  func() string
	Now          func() time.Time
	// Location defines calendar days for the daily limit and the time of
	// day used for period coverage. Defaults to UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// ReservationService admits new reservations and applies owner and
// administrator patches.
type ReservationService struct {
	reservations ReservationStore
	settings     *SettingsStore
	periods      PeriodLister
	availability *AvailabilityChecker
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	locks        *keyedMutex
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service.
func NewReservationService(deps ReservationServiceDeps) *ReservationService {
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "" }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &ReservationService{
		reservations: deps.Reservations,
		settings:     NewSettingsStore(deps.Settings),
		periods:      deps.Periods,
		availability: NewAvailabilityChecker(deps.Rooms),
		idGenerator:  deps.IDGenerator,
		now:          deps.Now,
		location:     deps.Location,
		locks:        newKeyedMutex(),
		logger:       defaultLogger(deps.Logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation admits a single-slot reservation. Checks run in a fixed
// order and the first failure is returned as a ValidationError carrying its
// reason.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (result CreateReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"username", params.Principal.Username,
		"room_id", params.RoomID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "reservation created",
			"reservation_id", result.ReservationID,
			"slot_id", result.SlotID,
			"status", result.Status,
		)
	}()

	if !params.Principal.Role.AtLeast(simpleMinRole) {
		err = ErrUnauthorized
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	start, end := normalizeInstant(params.Start), normalizeInstant(params.End)

	unlock := s.locks.Lock(params.RoomID)
	defer unlock()

	now := s.now()
	if err = s.admitSimple(ctx, params.Principal.Username, params.RoomID, start, end, now); err != nil {
		return
	}

	title, vErr := normalizeTitle(params.Title)
	if vErr != nil {
		err = vErr
		return
	}

	status := booking.InitialStatus(params.Principal.Role, simpleApprovalRole)
	reservation := s.newReservation(params.Principal.Username, params.RoomID, title, params.Note, params.SessionID, now)
	reservation.Slots = []persistence.TimeSlot{s.newSlot(reservation, start, end, status)}

	if err = s.write(ctx, "CreateReservation", reservation); err != nil {
		return
	}

	result = CreateReservationResult{
		ReservationID: reservation.ID,
		SlotID:        reservation.Slots[0].ID,
		Status:        status,
	}
	return
}

// CreateAdvancedReservation admits a reservation with one or more slots.
// Each slot must be a valid, future range covered by opening periods; the
// room is checked once. Time window, time limit and daily limit do not
// apply on this path.
func (s *ReservationService) CreateAdvancedReservation(ctx context.Context, params CreateAdvancedReservationParams) (reservationID string, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateAdvancedReservation",
		"username", params.Principal.Username,
		"room_id", params.RoomID,
		"slot_count", len(params.Slots),
	)
	defer func() {
		logOutcome(ctx, logger, err, "advanced reservation created", "reservation_id", reservationID)
	}()

	if !params.Principal.Role.AtLeast(advancedMinRole) {
		err = ErrUnauthorized
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}
	if len(params.Slots) == 0 {
		err = rejection("time_slots", "at least one time slot is required")
		return
	}

	unlock := s.locks.Lock(params.RoomID)
	defer unlock()

	now := s.now()
	periods, err := s.loadPeriods(ctx)
	if err != nil {
		return
	}

	ranges := make([]SlotRequest, len(params.Slots))
	for i, requested := range params.Slots {
		start, end := normalizeInstant(requested.Start), normalizeInstant(requested.End)
		field := fmt.Sprintf("time_slots[%d]", i)
		if start.After(end) {
			err = rejection(field, ReasonInvalidTimeRange)
			return
		}
		if start.Before(now) {
			err = rejection(field, ReasonInPast)
			return
		}
		if !booking.Covered(start, end, periods, s.location) {
			err = rejection(field, ReasonNotPeriods)
			return
		}
		ranges[i] = SlotRequest{Start: start, End: end}
	}

	if err = s.checkRoom(ctx, params.RoomID); err != nil {
		return
	}

	title, vErr := normalizeTitle(params.Title)
	if vErr != nil {
		err = vErr
		return
	}

	status := booking.InitialStatus(params.Principal.Role, advancedApprovalRole)
	reservation := s.newReservation(params.Principal.Username, params.RoomID, title, params.Note, params.SessionID, now)
	for _, r := range ranges {
		reservation.Slots = append(reservation.Slots, s.newSlot(reservation, r.Start, r.End, status))
	}

	if err = s.write(ctx, "CreateAdvancedReservation", reservation); err != nil {
		return
	}
	reservationID = reservation.ID
	return
}

// PatchReservation lets an owner rename, annotate or cancel their reservation.
func (s *ReservationService) PatchReservation(ctx context.Context, params PatchReservationParams) (persistence.Reservation, error) {
	if !params.Principal.Role.AtLeast(booking.RoleRestricted) {
		return persistence.Reservation{}, ErrUnauthorized
	}
	return s.patchReservation(ctx, "PatchReservation", params, booking.OwnerReservationPolicy, params.Principal.Username)
}

// AdminPatchReservation lets an administrator change any reservation.
func (s *ReservationService) AdminPatchReservation(ctx context.Context, params PatchReservationParams) (persistence.Reservation, error) {
	if !params.Principal.IsAdmin() {
		return persistence.Reservation{}, ErrUnauthorized
	}
	return s.patchReservation(ctx, "AdminPatchReservation", params, booking.AdminReservationPolicy, "")
}

// PatchSlot lets an owner cancel one of their slots.
func (s *ReservationService) PatchSlot(ctx context.Context, params PatchSlotParams) (persistence.Reservation, error) {
	if !params.Principal.Role.AtLeast(booking.RoleRestricted) {
		return persistence.Reservation{}, ErrUnauthorized
	}
	return s.patchSlot(ctx, "PatchSlot", params, booking.OwnerSlotPolicy, params.Principal.Username)
}

// AdminPatchSlot lets an administrator set any status on any slot.
func (s *ReservationService) AdminPatchSlot(ctx context.Context, params PatchSlotParams) (persistence.Reservation, error) {
	if !params.Principal.IsAdmin() {
		return persistence.Reservation{}, ErrUnauthorized
	}
	return s.patchSlot(ctx, "AdminPatchSlot", params, booking.AdminSlotPolicy, "")
}

// GetReservation returns a reservation to its owner or an administrator.
// Reservations owned by someone else are reported as not found.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, id string) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	reservation, err = s.reservations.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
			return
		}
		err = storageFailure("GetReservation", err)
		return
	}
	if !principal.IsAdmin() && reservation.Username != principal.Username {
		return persistence.Reservation{}, ErrNotFound
	}
	return reservation, nil
}

// ListReservations lists the caller's reservations. Administrators may list
// anybody's.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, nil
	}

	filter := persistence.ReservationFilter{
		Username: params.Principal.Username,
		RoomID:   strings.TrimSpace(params.RoomID),
		From:     params.From,
		To:       params.To,
	}
	if params.Principal.IsAdmin() {
		filter.Username = strings.TrimSpace(params.Username)
	}

	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, storageFailure("ListReservations", err)
	}
	return reservations, nil
}

func (s *ReservationService) admitSimple(ctx context.Context, username, roomID string, start, end, now time.Time) error {
	if start.After(end) {
		return rejection("time", ReasonInvalidTimeRange)
	}
	if start.Before(now) {
		return rejection("time", ReasonInPast)
	}

	window, ok, err := s.settings.GetDuration(ctx, booking.SettingTimeWindow)
	if err != nil {
		return storageFailure("GetSetting", err)
	}
	if ok && end.After(now.Add(window)) {
		return rejection("time", ReasonTooFar)
	}

	limit, ok, err := s.settings.GetDuration(ctx, booking.SettingTimeLimit)
	if err != nil {
		return storageFailure("GetSetting", err)
	}
	if ok && end.Sub(start) > limit {
		return rejection("time", ReasonTooLong)
	}

	maxDaily, ok, err := s.settings.GetInt(ctx, booking.SettingMaxDaily)
	if err != nil {
		return storageFailure("GetSetting", err)
	}
	if ok {
		from, to := s.dayBounds(now)
		count, err := s.reservations.CountReservationsCreated(ctx, username, from, to)
		if err != nil {
			return storageFailure("CountReservationsCreated", err)
		}
		if count >= maxDaily {
			return rejection("time", ReasonDailyLimit)
		}
	}

	periods, err := s.loadPeriods(ctx)
	if err != nil {
		return err
	}
	if !booking.Covered(start, end, periods, s.location) {
		return rejection("time", ReasonNotPeriods)
	}

	return s.checkRoom(ctx, roomID)
}

func (s *ReservationService) checkRoom(ctx context.Context, roomID string) error {
	available, err := s.availability.RoomIsAvailable(ctx, roomID)
	if err != nil {
		return storageFailure("GetRoom", err)
	}
	if !available {
		return rejection("room_id", ReasonRoomUnavailable)
	}
	return nil
}

func (s *ReservationService) loadPeriods(ctx context.Context) ([]booking.Period, error) {
	if s.periods == nil {
		return nil, nil
	}
	stored, err := s.periods.ListPeriods(ctx)
	if err != nil {
		return nil, storageFailure("ListPeriods", err)
	}
	periods := make([]booking.Period, len(stored))
	for i, p := range stored {
		periods[i] = booking.Period{ID: p.ID, Start: p.Start, End: p.End}
	}
	return periods, nil
}

// dayBounds returns the calendar day containing now in the service location.
func (s *ReservationService) dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.In(s.location).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, s.location)
	return from, from.AddDate(0, 0, 1)
}

func (s *ReservationService) newReservation(username, roomID, title, note string, sessionID *string, now time.Time) persistence.Reservation {
	return persistence.Reservation{
		ID:        s.idGenerator(),
		Username:  username,
		RoomID:    roomID,
		SessionID: normalizeOptionalID(sessionID),
		Privacy:   booking.PrivacyPublic,
		Title:     title,
		Note:      strings.TrimSpace(note),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *ReservationService) newSlot(reservation persistence.Reservation, start, end time.Time, status booking.SlotStatus) persistence.TimeSlot {
	return persistence.TimeSlot{
		ID:            s.idGenerator(),
		ReservationID: reservation.ID,
		Username:      reservation.Username,
		RoomID:        reservation.RoomID,
		Start:         start,
		End:           end,
		Status:        status,
	}
}

func (s *ReservationService) write(ctx context.Context, op string, reservation persistence.Reservation) error {
	err := s.reservations.CreateReservation(ctx, reservation)
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrConflict
	}
	return storageFailure(op, err)
}

func (s *ReservationService) patchReservation(ctx context.Context, op string, params PatchReservationParams, policy booking.Policy, owner string) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, op,
		"username", params.Principal.Username,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "reservation updated")
	}()

	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	update, vErr := buildReservationUpdate(params.Patch, policy)
	if vErr != nil {
		err = vErr
		return
	}
	update.ReservationID = params.ReservationID
	update.Username = owner
	update.UpdatedAt = s.now()

	var affected int64
	affected, err = s.reservations.UpdateReservation(ctx, update)
	if err != nil {
		err = mapPatchError(op, err)
		return
	}
	if affected == 0 {
		err = ErrNotFound
		return
	}

	reservation, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = storageFailure(op, err)
	}
	return
}

func (s *ReservationService) patchSlot(ctx context.Context, op string, params PatchSlotParams, policy booking.Policy, owner string) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, op,
		"username", params.Principal.Username,
		"reservation_id", params.ReservationID,
		"slot_id", params.SlotID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "slot updated")
	}()

	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	if problems := policy.Check(params.Patch); len(problems) > 0 {
		vErr := &ValidationError{}
		vErr.merge(problems)
		err = vErr
		return
	}

	var affected int64
	affected, err = s.reservations.UpdateSlot(ctx, persistence.SlotUpdate{
		ReservationID: params.ReservationID,
		SlotID:        params.SlotID,
		Username:      owner,
		Status:        booking.SlotStatus(params.Patch[booking.FieldStatus]),
		UpdatedAt:     s.now(),
	})
	if err != nil {
		err = mapPatchError(op, err)
		return
	}
	if affected == 0 {
		err = ErrNotFound
		return
	}

	reservation, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = storageFailure(op, err)
	}
	return
}

func buildReservationUpdate(patch booking.Patch, policy booking.Policy) (persistence.ReservationUpdate, *ValidationError) {
	vErr := &ValidationError{}
	vErr.merge(policy.Check(patch))
	if vErr.HasErrors() {
		return persistence.ReservationUpdate{}, vErr
	}

	var update persistence.ReservationUpdate
	if value, ok := patch[booking.FieldTitle]; ok {
		title, tErr := normalizeTitle(value)
		if tErr != nil {
			return persistence.ReservationUpdate{}, tErr
		}
		update.Title = &title
	}
	if value, ok := patch[booking.FieldNote]; ok {
		note := strings.TrimSpace(value)
		update.Note = &note
	}
	if value, ok := patch[booking.FieldPrivacy]; ok {
		privacy := booking.Privacy(value)
		update.Privacy = &privacy
	}
	if value, ok := patch[booking.FieldStatus]; ok {
		status := booking.SlotStatus(value)
		update.Status = &status
	}
	return update, nil
}

func mapPatchError(op string, err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrConflict
	}
	return storageFailure(op, err)
}

func normalizeTitle(title string) (string, *ValidationError) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", rejection("title", "title is required")
	}
	if len([]rune(trimmed)) > 200 {
		return "", rejection("title", "title must be at most 200 characters")
	}
	return trimmed, nil
}

func normalizeOptionalID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeInstant drops sub-second precision, which storage does not keep.
func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

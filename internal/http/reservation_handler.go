package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error)
	CreateAdvancedReservation(ctx context.Context, params application.CreateAdvancedReservationParams) (string, error)
	PatchReservation(ctx context.Context, params application.PatchReservationParams) (persistence.Reservation, error)
	AdminPatchReservation(ctx context.Context, params application.PatchReservationParams) (persistence.Reservation, error)
	PatchSlot(ctx context.Context, params application.PatchSlotParams) (persistence.Reservation, error)
	AdminPatchSlot(ctx context.Context, params application.PatchSlotParams) (persistence.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, id string) (persistence.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]persistence.Reservation, error)
}

// ReservationHandler serves reservation creation, lookup and patches.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", req.RoomID)
	result, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		RoomID:    req.RoomID,
		Title:     req.Title,
		Note:      req.Note,
		SessionID: req.SessionID,
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation created", "reservation_id", result.ReservationID, "status", result.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createReservationResponse{
		ReservationID: result.ReservationID,
		SlotID:        result.SlotID,
		Status:        string(result.Status),
	})
}

func (h *ReservationHandler) CreateAdvanced(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	var req createAdvancedReservationRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	slots := make([]application.SlotRequest, 0, len(req.TimeSlots))
	for _, slot := range req.TimeSlots {
		slots = append(slots, application.SlotRequest{Start: slot.Start, End: slot.End})
	}

	logger := h.log(r.Context(), "CreateAdvanced", "room_id", req.RoomID, "slot_count", len(slots))
	id, err := h.service.CreateAdvancedReservation(r.Context(), application.CreateAdvancedReservationParams{
		Principal: principal,
		RoomID:    req.RoomID,
		Title:     req.Title,
		Note:      req.Note,
		SessionID: req.SessionID,
		Slots:     slots,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation created", "reservation_id", id)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createAdvancedReservationResponse{ReservationID: id})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	reservation, err := h.service.GetReservation(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", id).WarnContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}
	to, err := parseOptionalTime(query.Get("to"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		Principal: principal,
		Username:  query.Get("username"),
		RoomID:    query.Get("room_id"),
		From:      from,
		To:        to,
	})
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: out})
}

func (h *ReservationHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.patchReservation(w, r, "Patch", func(ctx context.Context, params application.PatchReservationParams) (persistence.Reservation, error) {
		return h.service.PatchReservation(ctx, params)
	})
}

func (h *ReservationHandler) AdminPatch(w http.ResponseWriter, r *http.Request) {
	h.patchReservation(w, r, "AdminPatch", func(ctx context.Context, params application.PatchReservationParams) (persistence.Reservation, error) {
		return h.service.AdminPatchReservation(ctx, params)
	})
}

func (h *ReservationHandler) PatchSlot(w http.ResponseWriter, r *http.Request) {
	h.patchSlot(w, r, "PatchSlot", func(ctx context.Context, params application.PatchSlotParams) (persistence.Reservation, error) {
		return h.service.PatchSlot(ctx, params)
	})
}

func (h *ReservationHandler) AdminPatchSlot(w http.ResponseWriter, r *http.Request) {
	h.patchSlot(w, r, "AdminPatchSlot", func(ctx context.Context, params application.PatchSlotParams) (persistence.Reservation, error) {
		return h.service.AdminPatchSlot(ctx, params)
	})
}

func (h *ReservationHandler) patchReservation(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, application.PatchReservationParams) (persistence.Reservation, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}
	patch, err := decodePatch(r)
	if err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(r.Context(), operation, "reservation_id", id)
	reservation, err := apply(r.Context(), application.PatchReservationParams{
		Principal:     principal,
		ReservationID: id,
		Patch:         patch,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation patch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation patched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) patchSlot(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, application.PatchSlotParams) (persistence.Reservation, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}
	patch, err := decodePatch(r)
	if err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	slotID := strings.TrimSpace(r.PathValue("slotID"))
	logger := h.log(r.Context(), operation, "reservation_id", id, "slot_id", slotID)
	reservation, err := apply(r.Context(), application.PatchSlotParams{
		Principal:     principal,
		ReservationID: id,
		SlotID:        slotID,
		Patch:         patch,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "slot patch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "slot patched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// decodePatch reads a flat JSON object of string values. The allow-list is
// enforced by the service, not here.
func decodePatch(r *http.Request) (booking.Patch, error) {
	var raw map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody)).Decode(&raw); err != nil {
		return nil, errBadRequestBody
	}
	patch := make(booking.Patch, len(raw))
	for field, value := range raw {
		patch[booking.Field(field)] = value
	}
	return patch, nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type createReservationRequest struct {
	RoomID    string    `json:"room_id" validate:"required,max=100"`
	Title     string    `json:"title"`
	Note      string    `json:"note" validate:"max=2000"`
	SessionID *string   `json:"session_id"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
}

type createReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	SlotID        string `json:"slot_id"`
	Status        string `json:"status"`
}

type timeSlotRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type createAdvancedReservationRequest struct {
	RoomID    string            `json:"room_id" validate:"required,max=100"`
	Title     string            `json:"title"`
	Note      string            `json:"note" validate:"max=2000"`
	SessionID *string           `json:"session_id"`
	TimeSlots []timeSlotRequest `json:"time_slots" validate:"dive"`
}

type createAdvancedReservationResponse struct {
	ReservationID string `json:"reservation_id"`
}

type timeSlotDTO struct {
	ID     string `json:"id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

type reservationDTO struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	RoomID    string        `json:"room_id"`
	SessionID *string       `json:"session_id,omitempty"`
	Privacy   string        `json:"privacy"`
	Title     string        `json:"title"`
	Note      string        `json:"note,omitempty"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	TimeSlots []timeSlotDTO `json:"time_slots"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	slots := make([]timeSlotDTO, 0, len(reservation.Slots))
	for _, slot := range reservation.Slots {
		slots = append(slots, timeSlotDTO{
			ID:     slot.ID,
			Start:  slot.Start.UTC().Format(time.RFC3339),
			End:    slot.End.UTC().Format(time.RFC3339),
			Status: string(slot.Status),
		})
	}
	return reservationDTO{
		ID:        reservation.ID,
		Username:  reservation.Username,
		RoomID:    reservation.RoomID,
		SessionID: reservation.SessionID,
		Privacy:   string(reservation.Privacy),
		Title:     reservation.Title,
		Note:      reservation.Note,
		CreatedAt: reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: reservation.UpdatedAt.UTC().Format(time.RFC3339),
		TimeSlots: slots,
	}
}

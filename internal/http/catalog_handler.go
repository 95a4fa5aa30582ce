package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

type catalogService interface {
	CreatePeriod(ctx context.Context, principal application.Principal, input application.PeriodInput) (persistence.Period, error)
	ListPeriods(ctx context.Context) ([]persistence.Period, error)
	DeletePeriod(ctx context.Context, principal application.Principal, id string) error
	CreateTerm(ctx context.Context, principal application.Principal, input application.TermInput) (persistence.Term, error)
	ListTerms(ctx context.Context) ([]persistence.Term, error)
	PutSetting(ctx context.Context, principal application.Principal, key, value string) (persistence.Setting, error)
	DeleteSetting(ctx context.Context, principal application.Principal, key string) error
	ListSettings(ctx context.Context, principal application.Principal) ([]persistence.Setting, error)
}

// CatalogHandler serves opening periods, terms and admission settings.
type CatalogHandler struct {
	service   catalogService
	responder responder
	logger    *slog.Logger
}

func NewCatalogHandler(service catalogService, logger *slog.Logger) *CatalogHandler {
	base := defaultLogger(logger)
	return &CatalogHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CatalogHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CatalogHandler", operation, attrs...)
}

func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.log(r.Context(), operation).WarnContext(r.Context(), "catalog request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(r.Context(), w, err)
}

func (h *CatalogHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, ok := requirePrincipal(h.responder, w, r); !ok {
		return
	}

	periods, err := h.service.ListPeriods(r.Context())
	if err != nil {
		h.fail(w, r, "ListPeriods", err)
		return
	}
	out := make([]periodDTO, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodDTO(p))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPeriodsResponse{Periods: out})
}

func (h *CatalogHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	var req periodRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	period, err := h.service.CreatePeriod(r.Context(), principal, application.PeriodInput{
		Name:  req.Name,
		Start: req.StartTime,
		End:   req.EndTime,
	})
	if err != nil {
		h.fail(w, r, "CreatePeriod", err)
		return
	}
	h.log(r.Context(), "CreatePeriod", "period_id", period.ID).InfoContext(r.Context(), "period created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, periodResponse{Period: toPeriodDTO(period)})
}

func (h *CatalogHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if err := h.service.DeletePeriod(r.Context(), principal, id); err != nil {
		h.fail(w, r, "DeletePeriod", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListTerms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, ok := requirePrincipal(h.responder, w, r); !ok {
		return
	}

	terms, err := h.service.ListTerms(r.Context())
	if err != nil {
		h.fail(w, r, "ListTerms", err)
		return
	}
	out := make([]termDTO, 0, len(terms))
	for _, t := range terms {
		out = append(out, toTermDTO(t))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTermsResponse{Terms: out})
}

func (h *CatalogHandler) CreateTerm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	var req termRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	term, err := h.service.CreateTerm(r.Context(), principal, application.TermInput{
		Name:      req.Name,
		Start:     req.Start,
		End:       req.End,
		IsCurrent: req.IsCurrent,
	})
	if err != nil {
		h.fail(w, r, "CreateTerm", err)
		return
	}
	h.log(r.Context(), "CreateTerm", "term_id", term.ID).InfoContext(r.Context(), "term created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, termResponse{Term: toTermDTO(term)})
}

func (h *CatalogHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	settings, err := h.service.ListSettings(r.Context(), principal)
	if err != nil {
		h.fail(w, r, "ListSettings", err)
		return
	}
	out := make([]settingDTO, 0, len(settings))
	for _, s := range settings {
		out = append(out, toSettingDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSettingsResponse{Settings: out})
}

func (h *CatalogHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	var req settingRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.writeDecodeError(w, r, err)
		return
	}

	setting, err := h.service.PutSetting(r.Context(), principal, r.PathValue("key"), req.Value)
	if err != nil {
		h.fail(w, r, "PutSetting", err)
		return
	}
	h.log(r.Context(), "PutSetting", "key", setting.Key).InfoContext(r.Context(), "setting stored")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingResponse{Setting: toSettingDTO(setting)})
}

func (h *CatalogHandler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(h.responder, w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSetting(r.Context(), principal, r.PathValue("key")); err != nil {
		h.fail(w, r, "DeleteSetting", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type periodRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type periodDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type periodResponse struct {
	Period periodDTO `json:"period"`
}

type listPeriodsResponse struct {
	Periods []periodDTO `json:"periods"`
}

func toPeriodDTO(p persistence.Period) periodDTO {
	return periodDTO{
		ID:        p.ID,
		Name:      p.Name,
		StartTime: booking.FormatDuration(p.Start),
		EndTime:   booking.FormatDuration(p.End),
	}
}

type termRequest struct {
	Name      string    `json:"name" validate:"required,max=100"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required,gtfield=Start"`
	IsCurrent bool      `json:"is_current"`
}

type termDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Start     string `json:"start"`
	End       string `json:"end"`
	IsCurrent bool   `json:"is_current"`
}

type termResponse struct {
	Term termDTO `json:"term"`
}

type listTermsResponse struct {
	Terms []termDTO `json:"terms"`
}

func toTermDTO(t persistence.Term) termDTO {
	return termDTO{
		ID:        t.ID,
		Name:      t.Name,
		Start:     t.Start.UTC().Format(time.RFC3339),
		End:       t.End.UTC().Format(time.RFC3339),
		IsCurrent: t.IsCurrent,
	}
}

type settingRequest struct {
	Value string `json:"value" validate:"required"`
}

type settingDTO struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type settingResponse struct {
	Setting settingDTO `json:"setting"`
}

type listSettingsResponse struct {
	Settings []settingDTO `json:"settings"`
}

func toSettingDTO(s persistence.Setting) settingDTO {
	dto := settingDTO{Key: string(s.Key), Value: s.Value}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

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

// CatalogRepository captures the reference data the catalog service manages.
type CatalogRepository interface {
	CreatePeriod(ctx context.Context, period persistence.Period) error
	ListPeriods(ctx context.Context) ([]persistence.Period, error)
	DeletePeriod(ctx context.Context, id string) error

	CreateTerm(ctx context.Context, term persistence.Term) error
	ListTerms(ctx context.Context) ([]persistence.Term, error)

	PutSetting(ctx context.Context, setting persistence.Setting) error
	DeleteSetting(ctx context.Context, key booking.SettingKey) error
	ListSettings(ctx context.Context) ([]persistence.Setting, error)
}

// CatalogService administers opening periods, terms and admission settings.
type CatalogService struct {
	catalog     CatalogRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCatalogService constructs a catalog service.
func NewCatalogService(catalog CatalogRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogService{catalog: catalog, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// CreatePeriod adds a daily opening period. Periods ending at or before
// their start run past midnight; a zero-length period is rejected.
func (s *CatalogService) CreatePeriod(ctx context.Context, principal Principal, input PeriodInput) (period persistence.Period, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreatePeriod", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "period created", "period_id", period.ID)
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	start, sErr := booking.ParseClock(input.Start)
	if sErr != nil {
		vErr.add("start_time", "start_time must be a time of day in hh:mm:ss")
	}
	end, eErr := booking.ParseClock(input.End)
	if eErr != nil {
		vErr.add("end_time", "end_time must be a time of day in hh:mm:ss")
	}
	if sErr == nil && eErr == nil && start == end {
		vErr.add("end_time", "end_time must differ from start_time")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	period = persistence.Period{ID: s.idGenerator(), Name: name, Start: start, End: end}
	if s.catalog == nil {
		return
	}
	if err = s.catalog.CreatePeriod(ctx, period); err != nil {
		err = mapCatalogError("CreatePeriod", err)
		period = persistence.Period{}
	}
	return
}

// ListPeriods returns the configured opening periods.
func (s *CatalogService) ListPeriods(ctx context.Context) ([]persistence.Period, error) {
	if s == nil || s.catalog == nil {
		return nil, nil
	}
	periods, err := s.catalog.ListPeriods(ctx)
	if err != nil {
		return nil, storageFailure("ListPeriods", err)
	}
	return periods, nil
}

// DeletePeriod removes an opening period.
func (s *CatalogService) DeletePeriod(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("CatalogService is nil")
	}

	logger := s.loggerWith(ctx, "DeletePeriod", "principal", principal.Username, "period_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "period deleted")
	}()

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.catalog == nil {
		return fmt.Errorf("catalog repository not configured")
	}
	if err = s.catalog.DeletePeriod(ctx, id); err != nil {
		err = mapCatalogError("DeletePeriod", err)
	}
	return
}

// CreateTerm adds a term. A new current term replaces the previous one.
func (s *CatalogService) CreateTerm(ctx context.Context, principal Principal, input TermInput) (term persistence.Term, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateTerm", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "term created", "term_id", term.ID, "is_current", term.IsCurrent)
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("time", "start_time and end_time are required")
	} else if !input.End.After(input.Start) {
		vErr.add("time", ReasonInvalidTimeRange)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	term = persistence.Term{
		ID:        s.idGenerator(),
		Name:      name,
		Start:     normalizeInstant(input.Start),
		End:       normalizeInstant(input.End),
		IsCurrent: input.IsCurrent,
		CreatedAt: s.now(),
	}
	if s.catalog == nil {
		return
	}
	if err = s.catalog.CreateTerm(ctx, term); err != nil {
		err = mapCatalogError("CreateTerm", err)
		term = persistence.Term{}
	}
	return
}

// ListTerms returns every term.
func (s *CatalogService) ListTerms(ctx context.Context) ([]persistence.Term, error) {
	if s == nil || s.catalog == nil {
		return nil, nil
	}
	terms, err := s.catalog.ListTerms(ctx)
	if err != nil {
		return nil, storageFailure("ListTerms", err)
	}
	return terms, nil
}

// PutSetting validates and stores an admission limit.
func (s *CatalogService) PutSetting(ctx context.Context, principal Principal, key, value string) (setting persistence.Setting, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "PutSetting", "principal", principal.Username, "key", key)
	defer func() {
		logOutcome(ctx, logger, err, "setting stored", "value", setting.Value)
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	parsedKey, kErr := booking.ParseSettingKey(key)
	if kErr != nil {
		err = rejection("key", "key must be one of TIME_WINDOW, TIME_LIMIT, MAX_DAILY")
		return
	}
	normalized, vErr := booking.NormalizeSettingValue(parsedKey, value)
	if vErr != nil {
		if parsedKey == booking.SettingMaxDaily {
			err = rejection("value", "value must be a non-negative integer")
		} else {
			err = rejection("value", "value must be a duration in hh:mm:ss")
		}
		return
	}

	setting = persistence.Setting{Key: parsedKey, Value: normalized, UpdatedAt: s.now()}
	if s.catalog == nil {
		return
	}
	if err = s.catalog.PutSetting(ctx, setting); err != nil {
		err = mapCatalogError("PutSetting", err)
		setting = persistence.Setting{}
	}
	return
}

// DeleteSetting removes an admission limit so it no longer applies.
func (s *CatalogService) DeleteSetting(ctx context.Context, principal Principal, key string) (err error) {
	if s == nil {
		return fmt.Errorf("CatalogService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteSetting", "principal", principal.Username, "key", key)
	defer func() {
		logOutcome(ctx, logger, err, "setting removed")
	}()

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	parsedKey, kErr := booking.ParseSettingKey(key)
	if kErr != nil {
		return ErrNotFound
	}
	if s.catalog == nil {
		return fmt.Errorf("catalog repository not configured")
	}
	if err = s.catalog.DeleteSetting(ctx, parsedKey); err != nil {
		err = mapCatalogError("DeleteSetting", err)
	}
	return
}

// ListSettings returns every stored admission limit to administrators.
func (s *CatalogService) ListSettings(ctx context.Context, principal Principal) ([]persistence.Setting, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.catalog == nil {
		return nil, nil
	}
	settings, err := s.catalog.ListSettings(ctx)
	if err != nil {
		return nil, storageFailure("ListSettings", err)
	}
	return settings, nil
}

func mapCatalogError(op string, err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return storageFailure(op, err)
}

package sqlstore

import (
	"context"
	"database/sql"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

var (
	_ persistence.PeriodRepository  = (*CatalogRepository)(nil)
	_ persistence.TermRepository    = (*CatalogRepository)(nil)
	_ persistence.SettingRepository = (*CatalogRepository)(nil)
)

// CatalogRepository stores the administrative reference data consulted by
// admission: opening periods, terms and settings.
type CatalogRepository struct {
	store *Store
}

// NewCatalogRepository creates a catalog repository backed by store.
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// --- periods ---

// CreatePeriod inserts an opening period.
func (r *CatalogRepository) CreatePeriod(ctx context.Context, period persistence.Period) error {
	_, err := r.store.exec(ctx, r.store.db,
		`INSERT INTO periods (id, name, start_time, end_time) VALUES (?, ?, ?, ?)`,
		period.ID,
		period.Name,
		booking.FormatDuration(period.Start),
		booking.FormatDuration(period.End),
	)
	return r.store.mapError(err)
}

// ListPeriods returns every period ordered by start time.
func (r *CatalogRepository) ListPeriods(ctx context.Context) ([]persistence.Period, error) {
	rows, err := r.store.query(ctx, r.store.db, `SELECT id, name, start_time, end_time FROM periods ORDER BY start_time, id`)
	if err != nil {
		return nil, r.store.mapError(err)
	}
	defer rows.Close()

	var periods []persistence.Period
	for rows.Next() {
		var (
			period     persistence.Period
			start, end string
		)
		if err := rows.Scan(&period.ID, &period.Name, &start, &end); err != nil {
			return nil, err
		}
		if period.Start, err = booking.ParseClock(start); err != nil {
			return nil, err
		}
		if period.End, err = booking.ParseClock(end); err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, r.store.mapError(rows.Err())
}

// DeletePeriod removes a period.
func (r *CatalogRepository) DeletePeriod(ctx context.Context, id string) error {
	result, err := r.store.exec(ctx, r.store.db, `DELETE FROM periods WHERE id = ?`, id)
	if err != nil {
		return r.store.mapError(err)
	}
	return requireAffected(result)
}

// --- terms ---

// CreateTerm inserts a term. A current term demotes every other term in the
// same transaction.
func (r *CatalogRepository) CreateTerm(ctx context.Context, term persistence.Term) error {
	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		if term.IsCurrent {
			if _, err := r.store.exec(ctx, tx, `UPDATE sessions SET is_current = 0 WHERE is_current <> 0`); err != nil {
				return r.store.mapError(err)
			}
		}
		_, err := r.store.exec(ctx, tx,
			`INSERT INTO sessions (id, name, start_time, end_time, is_current, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			term.ID,
			term.Name,
			formatTime(term.Start),
			formatTime(term.End),
			boolToInt(term.IsCurrent),
			formatTime(term.CreatedAt),
		)
		return r.store.mapError(err)
	})
}

// ListTerms returns every term ordered by start.
func (r *CatalogRepository) ListTerms(ctx context.Context) ([]persistence.Term, error) {
	rows, err := r.store.query(ctx, r.store.db,
		`SELECT id, name, start_time, end_time, is_current, created_at FROM sessions ORDER BY start_time, id`)
	if err != nil {
		return nil, r.store.mapError(err)
	}
	defer rows.Close()

	var terms []persistence.Term
	for rows.Next() {
		var (
			term                  persistence.Term
			start, end, createdAt string
			current               int
		)
		if err := rows.Scan(&term.ID, &term.Name, &start, &end, &current, &createdAt); err != nil {
			return nil, err
		}
		term.IsCurrent = current != 0
		if term.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if term.End, err = parseTime(end); err != nil {
			return nil, err
		}
		if term.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, r.store.mapError(rows.Err())
}

// --- settings ---

// GetSetting returns the stored row for key or persistence.ErrNotFound.
func (r *CatalogRepository) GetSetting(ctx context.Context, key booking.SettingKey) (persistence.Setting, error) {
	var (
		setting persistence.Setting
		id      string
		updated string
	)
	err := r.store.queryRow(ctx, r.store.db,
		`SELECT id, value, updated_at FROM settings WHERE id = ?`, string(key),
	).Scan(&id, &setting.Value, &updated)
	if err != nil {
		return persistence.Setting{}, r.store.mapError(err)
	}
	setting.Key = booking.SettingKey(id)
	if setting.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Setting{}, err
	}
	return setting, nil
}

// PutSetting inserts or replaces a setting.
func (r *CatalogRepository) PutSetting(ctx context.Context, setting persistence.Setting) error {
	_, err := r.store.exec(ctx, r.store.db,
		`INSERT INTO settings (id, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(setting.Key),
		setting.Value,
		formatTime(setting.UpdatedAt),
	)
	return r.store.mapError(err)
}

// DeleteSetting removes a setting, lifting its limit.
func (r *CatalogRepository) DeleteSetting(ctx context.Context, key booking.SettingKey) error {
	result, err := r.store.exec(ctx, r.store.db, `DELETE FROM settings WHERE id = ?`, string(key))
	if err != nil {
		return r.store.mapError(err)
	}
	return requireAffected(result)
}

// ListSettings returns every stored setting ordered by key.
func (r *CatalogRepository) ListSettings(ctx context.Context) ([]persistence.Setting, error) {
	rows, err := r.store.query(ctx, r.store.db, `SELECT id, value, updated_at FROM settings ORDER BY id`)
	if err != nil {
		return nil, r.store.mapError(err)
	}
	defer rows.Close()

	var settings []persistence.Setting
	for rows.Next() {
		var (
			setting     persistence.Setting
			id, updated string
		)
		if err := rows.Scan(&id, &setting.Value, &updated); err != nil {
			return nil, err
		}
		setting.Key = booking.SettingKey(id)
		if setting.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	return settings, r.store.mapError(rows.Err())
}

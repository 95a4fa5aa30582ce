package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-reservation/internal/persistence/sqlstore"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Store        *sqlstore.Store
	Users        *sqlstore.UserRepository
	Rooms        *sqlstore.RoomRepository
	Catalog      *sqlstore.CatalogRepository
	Reservations *sqlstore.ReservationRepository
	Tokens       *sqlstore.TokenRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// SQLiteDSN returns the data source used by the harness for a database file
// at path.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLiteHarness opens a migrated database in a temporary directory.
// Callers may invoke Close; the helper also registers it with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservation.db")

	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		DSN:    SQLiteDSN(path),
	})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:        store,
		Users:        sqlstore.NewUserRepository(store),
		Rooms:        sqlstore.NewRoomRepository(store),
		Catalog:      sqlstore.NewCatalogRepository(store),
		Reservations: sqlstore.NewReservationRepository(store),
		Tokens:       sqlstore.NewTokenRepository(store),
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/migrations/sqlite"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/players"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/vaults"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/warehouses"
)

// SQLiteRepositoryManager is the embedded persistence driver. It needs no
// external server; the database lives in a single file.
type SQLiteRepositoryManager struct {
	db         *sql.DB
	vaults     vaults.Repository
	warehouses warehouses.Repository
	players    players.Repository
}

func (m *SQLiteRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLiteRepositoryManager) Vaults() vaults.Repository {
	return m.vaults
}

func (m *SQLiteRepositoryManager) Warehouses() warehouses.Repository {
	return m.warehouses
}

func (m *SQLiteRepositoryManager) Players() players.Repository {
	return m.players
}

// RunMigrations applies the embedded schema migrations. Idempotent.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(sqlite.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}
	return nil
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}

// NewSQLiteRepositoryManager opens the database file, runs the migrations
// and wires the repositories. The writer pool is capped at one connection,
// matching SQLite's single-writer model.
func NewSQLiteRepositoryManager(ctx context.Context, dsn string, limits vaults.Limits) (RepositoryManager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := pingWithBackoff(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := &SQLiteRepositoryManager{
		db:         db,
		vaults:     vaults.NewSQLiteRepository(db, limits),
		warehouses: warehouses.NewSQLiteRepository(db),
		players:    players.NewSQLiteRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

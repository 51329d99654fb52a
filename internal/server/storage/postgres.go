package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/migrations/postgres"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/players"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/vaults"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/warehouses"
)

// PostgresRepositoryManager is the PostgreSQL persistence driver, built on
// the pgx stdlib adapter.
type PostgresRepositoryManager struct {
	db         *sql.DB
	vaults     vaults.Repository
	warehouses warehouses.Repository
	players    players.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Vaults() vaults.Repository {
	return m.vaults
}

func (m *PostgresRepositoryManager) Warehouses() warehouses.Repository {
	return m.warehouses
}

func (m *PostgresRepositoryManager) Players() players.Repository {
	return m.players
}

// RunMigrations applies the embedded schema migrations. Idempotent.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager opens the pool, waits for the database, runs
// the migrations and wires the repositories.
func NewPostgresRepositoryManager(ctx context.Context, dsn string, limits vaults.Limits) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := pingWithBackoff(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:         db,
		vaults:     vaults.NewPostgresRepository(db, limits),
		warehouses: warehouses.NewPostgresRepository(db),
		players:    players.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

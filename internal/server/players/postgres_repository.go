package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, owner uuid.UUID) (*Player, error) {
	query := `SELECT max_vaults, max_warehouse_stock, warehouse_mode, quick_return_click_type
		FROM players WHERE uuid = $1`

	var mode, click string
	p := New(owner)
	err := r.db.QueryRowContext(ctx, query, owner.String()).
		Scan(&p.MaxExtraVaults, &p.MaxExtraStock, &mode, &click)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, nil
		}
		return nil, fmt.Errorf("select player %s: %w", owner, err)
	}
	p.Mode = ParseMode(mode)
	p.QuickReturnClick = ParseClickType(click)
	return p, nil
}

func (r *PostgresRepository) Save(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (uuid, max_vaults, max_warehouse_stock, warehouse_mode, quick_return_click_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uuid)
		DO UPDATE SET
			max_vaults = EXCLUDED.max_vaults,
			max_warehouse_stock = EXCLUDED.max_warehouse_stock,
			warehouse_mode = EXCLUDED.warehouse_mode,
			quick_return_click_type = EXCLUDED.quick_return_click_type
	`
	_, err := r.db.ExecContext(ctx, query,
		p.Owner().String(), p.MaxExtraVaults, p.MaxExtraStock, string(p.Mode), string(p.QuickReturnClick))
	if err != nil {
		return fmt.Errorf("save player %s: %w", p.Owner(), err)
	}
	return nil
}

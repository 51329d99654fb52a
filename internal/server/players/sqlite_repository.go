package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, owner uuid.UUID) (*Player, error) {
	query := `SELECT max_vaults, max_warehouse_stock, warehouse_mode, quick_return_click_type
		FROM players WHERE uuid = ?`

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

func (r *SQLiteRepository) Save(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (uuid, max_vaults, max_warehouse_stock, warehouse_mode, quick_return_click_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			max_vaults = excluded.max_vaults,
			max_warehouse_stock = excluded.max_warehouse_stock,
			warehouse_mode = excluded.warehouse_mode,
			quick_return_click_type = excluded.quick_return_click_type
	`
	_, err := r.db.ExecContext(ctx, query,
		p.Owner().String(), p.MaxExtraVaults, p.MaxExtraStock, string(p.Mode), string(p.QuickReturnClick))
	if err != nil {
		return fmt.Errorf("save player %s: %w", p.Owner(), err)
	}
	return nil
}

package warehouses

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

// SQLiteRepository implements Repository over *sql.DB for the embedded
// backend.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given pool.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, owner uuid.UUID) (*Warehouse, error) {
	query := `SELECT material, quantity, last_update FROM warehouses WHERE owner = ?`

	rows, err := r.db.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("select warehouse %s: %w", owner, err)
	}
	defer rows.Close()

	var stocks []Stock
	for rows.Next() {
		var s Stock
		var material string
		if err := rows.Scan(&material, &s.Quantity, &s.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan warehouse row: %w", err)
		}
		s.Type = items.ItemType(material)
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouse rows: %w", err)
	}
	return Hydrate(owner, stocks), nil
}

func (r *SQLiteRepository) Save(ctx context.Context, w *Warehouse) error {
	owner := w.Owner().String()
	stocks := w.Stocks()

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		upsert := `
			INSERT INTO warehouses (owner, material, quantity, last_update)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(owner, material)
			DO UPDATE SET quantity = excluded.quantity, last_update = excluded.last_update
		`
		for _, s := range stocks {
			if _, err := tx.ExecContext(ctx, upsert, owner, s.Type.String(), s.Quantity, s.LastUpdate); err != nil {
				return fmt.Errorf("upsert compartment %s: %w", s.Type, err)
			}
		}

		if len(stocks) == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM warehouses WHERE owner = ?`, owner); err != nil {
				return fmt.Errorf("delete compartments: %w", err)
			}
			return nil
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(stocks)), ", ")
		args := make([]any, 0, len(stocks)+1)
		args = append(args, owner)
		for _, s := range stocks {
			args = append(args, s.Type.String())
		}
		stale := fmt.Sprintf(`DELETE FROM warehouses WHERE owner = ? AND material NOT IN (%s)`, placeholders)
		if _, err := tx.ExecContext(ctx, stale, args...); err != nil {
			return fmt.Errorf("delete stale compartments: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save warehouse %s: %w", w.Owner(), err)
	}
	return nil
}

func (r *SQLiteRepository) TotalQuantity(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM warehouses`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total warehouse quantity: %w", err)
	}
	return total, nil
}

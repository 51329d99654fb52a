package vaults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

// SQLiteRepository implements Repository over *sql.DB for the embedded
// backend.
type SQLiteRepository struct {
	db     *sql.DB
	limits Limits
}

// NewSQLiteRepository constructs a repository. Hydrated vaults inherit the
// given limits.
func NewSQLiteRepository(db *sql.DB, limits Limits) *SQLiteRepository {
	return &SQLiteRepository{db: db, limits: limits}
}

func (r *SQLiteRepository) Get(ctx context.Context, key Key) (*Vault, error) {
	query := `SELECT name, icon, payload, trusted FROM vaults WHERE owner = ? AND id = ?`

	var name, icon, payload, trusted string
	err := r.db.QueryRowContext(ctx, query, key.Owner.String(), key.ID).
		Scan(&name, &icon, &payload, &trusted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select vault %s: %w", key, err)
	}
	return Hydrate(key, r.limits, name, items.ItemType(icon), payload, trusted)
}

func (r *SQLiteRepository) GetByName(ctx context.Context, owner uuid.UUID, name string) (*Vault, error) {
	query := `SELECT id, name, icon, payload, trusted FROM vaults WHERE owner = ? AND name = ?`

	var id int
	var dbName, icon, payload, trusted string
	err := r.db.QueryRowContext(ctx, query, owner.String(), name).
		Scan(&id, &dbName, &icon, &payload, &trusted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select vault %s/%s: %w", owner, name, err)
	}
	return Hydrate(NewKey(owner, id), r.limits, dbName, items.ItemType(icon), payload, trusted)
}

func (r *SQLiteRepository) List(ctx context.Context, owner uuid.UUID) ([]Snapshot, error) {
	query := `SELECT id, name, icon, trusted FROM vaults WHERE owner = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list vaults of %s: %w", owner, err)
	}
	defer rows.Close()
	return scanSnapshots(rows, &owner)
}

func (r *SQLiteRepository) Names(ctx context.Context, owner uuid.UUID) ([]string, error) {
	query := `SELECT name FROM vaults WHERE owner = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list vault names of %s: %w", owner, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan vault name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vault names: %w", err)
	}
	return names, nil
}

func (r *SQLiteRepository) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vaults WHERE owner = ?`, owner.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count vaults of %s: %w", owner, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, v *Vault) error {
	payload, err := v.EncodePayload()
	if err != nil {
		return fmt.Errorf("save vault %s: %w", v.Key(), err)
	}
	trusted, err := v.EncodeTrusted()
	if err != nil {
		return fmt.Errorf("save vault %s: %w", v.Key(), err)
	}

	query := `
		INSERT INTO vaults (owner, id, name, icon, payload, trusted)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, id)
		DO UPDATE SET name = excluded.name, icon = excluded.icon,
			payload = excluded.payload, trusted = excluded.trusted
	`
	if _, err := r.db.ExecContext(ctx, query,
		v.Key().Owner.String(), v.Key().ID, v.Name(), v.Icon().String(), payload, trusted); err != nil {
		return fmt.Errorf("save vault %s: %w", v.Key(), err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key Key) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE owner = ? AND id = ?`,
		key.Owner.String(), key.ID); err != nil {
		return fmt.Errorf("delete vault %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context, owner uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE owner = ?`, owner.String())
	if err != nil {
		return 0, fmt.Errorf("delete vaults of %s: %w", owner, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete vaults of %s: %w", owner, err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]Snapshot, error) {
	query := `SELECT owner, id, name, icon, trusted FROM vaults ORDER BY owner, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all vaults: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows, nil)
}

func (r *SQLiteRepository) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vaults`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vaults: %w", err)
	}
	return n, nil
}

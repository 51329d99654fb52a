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

// PostgresRepository implements Repository over *sql.DB with the pgx stdlib
// driver.
type PostgresRepository struct {
	db     *sql.DB
	limits Limits
}

// NewPostgresRepository constructs a repository. Hydrated vaults inherit the
// given limits.
func NewPostgresRepository(db *sql.DB, limits Limits) *PostgresRepository {
	return &PostgresRepository{db: db, limits: limits}
}

func (r *PostgresRepository) scanVault(owner uuid.UUID, id int, name, icon, payload, trusted string) (*Vault, error) {
	return Hydrate(NewKey(owner, id), r.limits, name, items.ItemType(icon), payload, trusted)
}

func (r *PostgresRepository) Get(ctx context.Context, key Key) (*Vault, error) {
	query := `SELECT name, icon, payload, trusted FROM vaults WHERE owner = $1 AND id = $2`

	var name, icon, payload, trusted string
	err := r.db.QueryRowContext(ctx, query, key.Owner.String(), key.ID).
		Scan(&name, &icon, &payload, &trusted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select vault %s: %w", key, err)
	}
	return r.scanVault(key.Owner, key.ID, name, icon, payload, trusted)
}

func (r *PostgresRepository) GetByName(ctx context.Context, owner uuid.UUID, name string) (*Vault, error) {
	query := `SELECT id, name, icon, payload, trusted FROM vaults WHERE owner = $1 AND name = $2`

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
	return r.scanVault(owner, id, dbName, icon, payload, trusted)
}

func (r *PostgresRepository) List(ctx context.Context, owner uuid.UUID) ([]Snapshot, error) {
	query := `SELECT id, name, icon, trusted FROM vaults WHERE owner = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list vaults of %s: %w", owner, err)
	}
	defer rows.Close()
	return scanSnapshots(rows, &owner)
}

func (r *PostgresRepository) Names(ctx context.Context, owner uuid.UUID) ([]string, error) {
	query := `SELECT name FROM vaults WHERE owner = $1 ORDER BY id`

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

func (r *PostgresRepository) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vaults WHERE owner = $1`, owner.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count vaults of %s: %w", owner, err)
	}
	return n, nil
}

func (r *PostgresRepository) Save(ctx context.Context, v *Vault) error {
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
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner, id)
		DO UPDATE SET name = EXCLUDED.name, icon = EXCLUDED.icon,
			payload = EXCLUDED.payload, trusted = EXCLUDED.trusted
	`
	if _, err := r.db.ExecContext(ctx, query,
		v.Key().Owner.String(), v.Key().ID, v.Name(), v.Icon().String(), payload, trusted); err != nil {
		return fmt.Errorf("save vault %s: %w", v.Key(), err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key Key) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE owner = $1 AND id = $2`,
		key.Owner.String(), key.ID); err != nil {
		return fmt.Errorf("delete vault %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, owner uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE owner = $1`, owner.String())
	if err != nil {
		return 0, fmt.Errorf("delete vaults of %s: %w", owner, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete vaults of %s: %w", owner, err)
	}
	return int(n), nil
}

func (r *PostgresRepository) All(ctx context.Context) ([]Snapshot, error) {
	query := `SELECT owner, id, name, icon, trusted FROM vaults ORDER BY owner, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all vaults: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows, nil)
}

func (r *PostgresRepository) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vaults`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vaults: %w", err)
	}
	return n, nil
}

// scanSnapshots reads snapshot rows. With a fixed owner the row layout is
// (id, name, icon, trusted); otherwise it starts with the owner column.
func scanSnapshots(rows *sql.Rows, fixedOwner *uuid.UUID) ([]Snapshot, error) {
	var out []Snapshot
	for rows.Next() {
		var (
			ownerStr string
			id       int
			name     string
			icon     string
			trusted  string
		)
		var err error
		if fixedOwner != nil {
			err = rows.Scan(&id, &name, &icon, &trusted)
		} else {
			err = rows.Scan(&ownerStr, &id, &name, &icon, &trusted)
		}
		if err != nil {
			return nil, fmt.Errorf("scan vault snapshot: %w", err)
		}

		owner := uuid.UUID{}
		if fixedOwner != nil {
			owner = *fixedOwner
		} else {
			owner, err = uuid.Parse(ownerStr)
			if err != nil {
				return nil, fmt.Errorf("scan vault snapshot: %w", err)
			}
		}
		set, err := decodeTrusted(trusted)
		if err != nil {
			return nil, fmt.Errorf("scan vault snapshot: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(set))
		for t := range set {
			ids = append(ids, t)
		}
		out = append(out, Snapshot{
			Key:     NewKey(owner, id),
			Name:    name,
			Icon:    items.ItemType(icon),
			Trusted: ids,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vault snapshots: %w", err)
	}
	return out, nil
}

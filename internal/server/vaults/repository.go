package vaults

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists vault rows keyed by (owner, id).
type Repository interface {
	// Get loads one vault. Absent keys yield common.ErrorNotFound.
	Get(ctx context.Context, key Key) (*Vault, error)
	// GetByName loads the owner's vault with the exact display name.
	GetByName(ctx context.Context, owner uuid.UUID, name string) (*Vault, error)
	// List returns listing snapshots of the owner's vaults, ordered by id.
	List(ctx context.Context, owner uuid.UUID) ([]Snapshot, error)
	// Names returns the owner's display names, for completion.
	Names(ctx context.Context, owner uuid.UUID) ([]string, error)
	// Count returns how many vaults the owner holds.
	Count(ctx context.Context, owner uuid.UUID) (int, error)
	// Save upserts the full row, payload included.
	Save(ctx context.Context, v *Vault) error
	// Delete removes one vault row.
	Delete(ctx context.Context, key Key) error
	// DeleteAll removes every vault of the owner and reports the count.
	DeleteAll(ctx context.Context, owner uuid.UUID) (int, error)
	// All returns snapshots of every vault of every owner, for exports.
	All(ctx context.Context) ([]Snapshot, error)
	// TotalCount counts every vault row, for metrics.
	TotalCount(ctx context.Context) (int, error)
}

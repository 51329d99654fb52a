package warehouses

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists warehouse compartment rows, one per (owner, type).
type Repository interface {
	// Get loads a ledger. A player with no rows yields an empty ledger,
	// never nil.
	Get(ctx context.Context, owner uuid.UUID) (*Warehouse, error)
	// Save reconciles the persisted rows with the ledger: every present
	// compartment is upserted, rows for removed compartments are deleted.
	Save(ctx context.Context, w *Warehouse) error
	// TotalQuantity sums every compartment of every owner, for metrics.
	TotalQuantity(ctx context.Context) (int, error)
}

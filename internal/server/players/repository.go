package players

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists player settings rows.
type Repository interface {
	// Get loads the settings for a player. A missing row yields a defaulted
	// record, never nil.
	Get(ctx context.Context, owner uuid.UUID) (*Player, error)
	// Save upserts the settings row.
	Save(ctx context.Context, p *Player) error
}

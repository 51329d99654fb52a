// Package storage wires the persistence drivers: one RepositoryManager per
// backend, each owning the connection pool, the goose migrations and the
// repository constructors.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/players"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/vaults"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/warehouses"
)

// RepositoryManager vends backend-specific repositories over one shared
// connection pool. Close releases the pool; the cache store calls it during
// teardown.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Vaults() vaults.Repository
	Warehouses() warehouses.Repository
	Players() players.Repository
	Close() error
}

// pingWithBackoff waits for the database to come up, retrying the ping on a
// fibonacci schedule. Servers often race their database at boot.
func pingWithBackoff(ctx context.Context, db *sql.DB) error {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

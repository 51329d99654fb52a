// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Driver names accepted in Config.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime settings for the vaultkeeper server.
//
// Fields:
//   - Driver: persistence backend, "postgres" or "sqlite".
//   - DatabaseDSN: pgx DSN for postgres, file path for sqlite.
//   - SweepInterval / SaveInterval: cache sweep wake-up and full-flush periods.
//   - VaultTTL: how long an untouched vault stays resident.
//   - VaultRows / VaultRowWidth: minimum slot grid of a fresh vault.
//   - VaultNameMax / VaultTrustMax: display name and trusted list caps.
//   - VaultDefaultName: fmt pattern for fresh vault names, takes the number.
//   - VaultDefaultIcon: item type used as the icon of fresh vaults.
//   - BaseVaults / BaseStock: per-player floor for vault count and warehouse
//     capacity before grants.
//   - Blacklist: item types that can never be stocked.
type Config struct {
	Driver           string
	DatabaseDSN      string
	SweepInterval    time.Duration
	SaveInterval     time.Duration
	VaultTTL         time.Duration
	VaultRows        int
	VaultRowWidth    int
	VaultNameMax     int
	VaultTrustMax    int
	VaultDefaultName string
	VaultDefaultIcon string
	BaseVaults       int
	BaseStock        int
	Blacklist        []string
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.Driver = DriverSQLite
	c.DatabaseDSN = "vaultkeeper.db"
	c.SweepInterval = 2 * time.Second
	c.SaveInterval = 60 * time.Second
	c.VaultTTL = 10 * time.Minute
	c.VaultRows = 3
	c.VaultRowWidth = 9
	c.VaultNameMax = 32
	c.VaultTrustMax = 10
	c.VaultDefaultName = "Vault %d"
	c.VaultDefaultIcon = "CHEST"
	c.BaseVaults = 1
	c.BaseStock = 1024
	c.Blacklist = nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, DriverSQLite, c.Driver)
	assert.Equal(t, "vaultkeeper.db", c.DatabaseDSN)
	assert.Equal(t, 2*time.Second, c.SweepInterval)
	assert.Equal(t, 60*time.Second, c.SaveInterval)
	assert.Equal(t, 10*time.Minute, c.VaultTTL)
	assert.Equal(t, 3, c.VaultRows)
	assert.Equal(t, 9, c.VaultRowWidth)
	assert.Equal(t, 32, c.VaultNameMax)
	assert.Equal(t, 10, c.VaultTrustMax)
	assert.Equal(t, "Vault %d", c.VaultDefaultName)
	assert.Equal(t, "CHEST", c.VaultDefaultIcon)
	assert.Equal(t, 1, c.BaseVaults)
	assert.Equal(t, 1024, c.BaseStock)
	assert.Empty(t, c.Blacklist)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, DriverSQLite, c.Driver)
	assert.Equal(t, "vaultkeeper.db", c.DatabaseDSN)
	assert.Equal(t, 2*time.Second, c.SweepInterval)
}

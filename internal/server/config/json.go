package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
	"github.com/dmitrijs2005/vaultkeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "2s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	Driver           string         `json:"driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	SweepInterval    timex.Duration `json:"sweep_interval"`
	SaveInterval     timex.Duration `json:"save_interval"`
	VaultTTL         timex.Duration `json:"vault_ttl"`
	VaultRows        int            `json:"vault_rows"`
	VaultRowWidth    int            `json:"vault_row_width"`
	VaultNameMax     int            `json:"vault_name_max"`
	VaultTrustMax    int            `json:"vault_trust_max"`
	VaultDefaultName string         `json:"vault_default_name"`
	VaultDefaultIcon string         `json:"vault_default_icon"`
	BaseVaults       int            `json:"base_vaults"`
	BaseStock        int            `json:"base_stock"`
	Blacklist        []string       `json:"blacklist"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; without them no file is loaded. Unreadable or invalid files panic:
// a server booting with broken explicit configuration must not start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.Driver = c.Driver
	config.DatabaseDSN = c.DatabaseDSN
	config.SweepInterval = time.Duration(c.SweepInterval.Duration)
	config.SaveInterval = time.Duration(c.SaveInterval.Duration)
	config.VaultTTL = time.Duration(c.VaultTTL.Duration)
	config.VaultRows = c.VaultRows
	config.VaultRowWidth = c.VaultRowWidth
	config.VaultNameMax = c.VaultNameMax
	config.VaultTrustMax = c.VaultTrustMax
	config.VaultDefaultName = c.VaultDefaultName
	config.VaultDefaultIcon = c.VaultDefaultIcon
	config.BaseVaults = c.BaseVaults
	config.BaseStock = c.BaseStock
	config.Blacklist = c.Blacklist
}

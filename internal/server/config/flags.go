package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-D string   persistence driver, "postgres" or "sqlite"
//	-d string   database DSN (pgx DSN or sqlite file path)
//	-v int      base vault allowance per player
//	-s int      base warehouse capacity per player
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Interval
// tuning stays in the JSON overlay; flags cover the values operators change
// per deployment.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-D", "-d", "-v", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Driver, "D", config.Driver, "persistence driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BaseVaults, "v", config.BaseVaults, "base vault allowance")
	fs.IntVar(&config.BaseStock, "s", config.BaseStock, "base warehouse capacity")

	_ = fs.Parse(args)
}

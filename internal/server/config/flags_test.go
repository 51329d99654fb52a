package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-D", "postgres", "-d", "postgres://db/vk", "-v", "3", "-s", "2048"},
			expected: Config{
				Driver:      DriverPostgres,
				DatabaseDSN: "postgres://db/vk",
				BaseVaults:  3,
				BaseStock:   2048,
			},
		},
		{
			name: "unknown flags are filtered out",
			args: []string{"cmd", "-D", "sqlite", "-x", "ignored", "-d", "file.db"},
			expected: Config{
				Driver:      DriverSQLite,
				DatabaseDSN: "file.db",
			},
		},
		{
			name:     "no flags keep existing values",
			args:     []string{"cmd"},
			expected: Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := Config{}
			parseFlags(&config)
			assert.Equal(t, tt.expected, config)
		})
	}
}

// Package cfg holds the settings the CLI reads from the environment.
package cfg

import (
	"os"
	"strings"
)

var (
	SCHEMACHAINDRIVER   = ""
	SCHEMACHAINDBSTRING = ""
	SCHEMACHAINTABLE    = DefaultTable
	// SCHEMACHAINLOCK is one of none, table or advisory.
	SCHEMACHAINLOCK    = DefaultLock
	SCHEMACHAINVERBOSE = "false"
)

var (
	DefaultTable = "schemachain_revision"
	DefaultLock  = "none"
)

// Load reads the config values from the environment, which may have been populated first from
// the file named by the -env flag.
func Load() {
	SCHEMACHAINDRIVER = envOr("SCHEMACHAIN_DRIVER", SCHEMACHAINDRIVER)
	SCHEMACHAINDBSTRING = envOr("SCHEMACHAIN_DBSTRING", SCHEMACHAINDBSTRING)
	SCHEMACHAINTABLE = envOr("SCHEMACHAIN_TABLE", SCHEMACHAINTABLE)
	SCHEMACHAINLOCK = envOr("SCHEMACHAIN_LOCK", SCHEMACHAINLOCK)
	SCHEMACHAINVERBOSE = envOr("SCHEMACHAIN_VERBOSE", SCHEMACHAINVERBOSE)
}

// An EnvVar is an environment variable Name=Value.
type EnvVar struct {
	Name  string
	Value string
}

// List returns the current settings. The connection string is masked, it usually holds a
// password.
func List() []EnvVar {
	return []EnvVar{
		{Name: "SCHEMACHAIN_DRIVER", Value: SCHEMACHAINDRIVER},
		{Name: "SCHEMACHAIN_DBSTRING", Value: mask(SCHEMACHAINDBSTRING)},
		{Name: "SCHEMACHAIN_TABLE", Value: SCHEMACHAINTABLE},
		{Name: "SCHEMACHAIN_LOCK", Value: SCHEMACHAINLOCK},
		{Name: "SCHEMACHAIN_VERBOSE", Value: SCHEMACHAINVERBOSE},
	}
}

// Verbose reports whether SCHEMACHAIN_VERBOSE is set to a true value.
func Verbose() bool {
	switch strings.ToLower(SCHEMACHAINVERBOSE) {
	case "1", "t", "true", "yes", "on":
		return true
	}
	return false
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// envOr returns os.Getenv(key) if set, or else default.
func envOr(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		val = def
	}
	return val
}

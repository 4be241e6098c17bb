// Package normalizedsn rewrites connection strings into the form the revision store expects.
package normalizedsn

import "github.com/go-sql-driver/mysql"

// DBString parses a go-sql-driver/mysql dsn and sets parseTime, so that DATETIME and TIMESTAMP
// columns in the revision table scan into time.Time. If tlsConfig is not empty it names a TLS
// config registered with mysql.RegisterTLSConfig.
func DBString(dsn, tlsConfig string) (string, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	config.ParseTime = true
	if tlsConfig != "" {
		config.TLSConfig = tlsConfig
	}
	return config.FormatDSN(), nil
}

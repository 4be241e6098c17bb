//go:build !no_mysql

package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/stockdesk/schemachain/internal/normalizedsn"
	_ "github.com/ziutek/mymysql/godrv"
)

const tlsConfigKey = "custom"

// normalizeDBString makes mysql and tidb connection strings scan timestamps into time.Time, and
// registers certfile as the root CA when one is given.
func normalizeDBString(driver, str, certfile string) (string, error) {
	if driver != "mysql" && driver != "tidb" {
		return str, nil
	}
	var tlsConfig string
	if certfile != "" {
		if err := registerTLSConfig(certfile); err != nil {
			return "", err
		}
		tlsConfig = tlsConfigKey
	}
	dsn, err := normalizedsn.DBString(str, tlsConfig)
	if err != nil {
		return "", fmt.Errorf("failed to normalize MySQL connection string: %w", err)
	}
	return dsn, nil
}

func registerTLSConfig(pemfile string) error {
	rootCertPool := x509.NewCertPool()
	pem, err := os.ReadFile(pemfile)
	if err != nil {
		return err
	}
	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return fmt.Errorf("failed to append PEM: %q", pemfile)
	}
	return mysql.RegisterTLSConfig(tlsConfigKey, &tls.Config{
		RootCAs: rootCertPool,
	})
}

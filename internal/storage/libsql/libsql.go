// Package libsql connects the repository to a remote libSQL (Turso)
// database. It lives apart from storage so that only binaries selecting
// the libsql backend link the cgo driver.
package libsql

import (
	"fmt"
	"net/url"

	"finsheets/internal/storage"

	_ "github.com/tursodatabase/go-libsql"
)

const driverName = "libsql"

// DSN appends the access key to the endpoint URL.
func DSN(endpoint, authToken string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("database url %q needs a scheme and host", endpoint)
	}
	q := u.Query()
	q.Set("authToken", authToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open connects to endpoint with authToken and runs migrations.
func Open(endpoint, authToken string) (*storage.Repository, error) {
	dsn, err := DSN(endpoint, authToken)
	if err != nil {
		return nil, err
	}
	return storage.Open(driverName, dsn)
}

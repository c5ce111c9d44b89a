package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Open returns the Storage for the named driver.
func Open(driver, dsn string, log logrus.FieldLogger) (Storage, error) {
	switch driver {
	case sqliteDialect.name, "sqlite":
		return NewSQLiteStore(dsn, log)
	case postgresDialect.name, "postgresql":
		return NewPostgresStore(dsn, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

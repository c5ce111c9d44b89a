package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteDefaults makes every transaction take the write lock at BEGIN, so two
// postings against the same loan serialize instead of racing on a stale read.
const sqliteDefaults = "_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000"

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (creating if needed) the database file at dataSourceName
// and initializes the schema.
func NewSQLiteStore(dataSourceName string, log logrus.FieldLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	log.WithField("driver", sqliteDialect.name).Info("Database connection established and schema initialized")
	return &SQLiteStore{&sqlStore{db: db, dialect: sqliteDialect, log: log}}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteDefaults
	}
	return dsn + "?" + sqliteDefaults
}

var _ Storage = (*SQLiteStore)(nil)

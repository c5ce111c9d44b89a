package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostgresStore is the production store. Postings lock the loan row with
// SELECT ... FOR UPDATE.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects using a lib/pq connection string and initializes
// the schema.
func NewPostgresStore(connStr string, log logrus.FieldLogger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	log.WithField("driver", postgresDialect.name).Info("Database connection established and schema initialized")
	return &PostgresStore{&sqlStore{db: db, dialect: postgresDialect, log: log}}, nil
}

var _ Storage = (*PostgresStore)(nil)

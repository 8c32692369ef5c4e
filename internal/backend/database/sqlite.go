package database

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	sqlStore
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		sqlStore: sqlStore{
			db:               db,
			dialect:          sqliteDialect{},
			connectionString: connectionString,
		},
	}, nil
}

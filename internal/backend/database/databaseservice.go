package database

import "database/sql"

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateEmbedRecord stores an upload together with the signed image returned for it.
	CreateEmbedRecord(filename string, original []byte, signed []byte) (string, error)
	// CreateVerifyRecord stores an upload together with its verdict.
	CreateVerifyRecord(filename string, original []byte, result VerifyFields) (string, error)
	GetRecords(kind Kind) ([]*Record, error)
	GetRecordByID(id string) (*Record, error)
	DeleteRecord(id string) error
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlStore implements DatabaseService on top of database/sql for any Dialect.
type sqlStore struct {
	db               *sql.DB
	dialect          Dialect
	connectionString string
}

func (s *sqlStore) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		filename TEXT NOT NULL,
		original_image %[1]s,
		processed_image %[1]s,
		detection_status TEXT NOT NULL DEFAULT '',
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		context TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL DEFAULT '',
		created_at %[2]s NOT NULL
	)`, s.dialect.BlobType(), s.dialect.TimestampType()))
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_kind_created ON records(kind, created_at)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *sqlStore) DoesDatabaseExist() bool {
	// The database is reachable if it answers a ping.
	err := s.db.Ping()
	return err == nil
}

func (s *sqlStore) CreateEmbedRecord(filename string, original []byte, signed []byte) (string, error) {
	return s.insert(&Record{
		Kind:           KindEmbed,
		Filename:       filename,
		OriginalImage:  original,
		ProcessedImage: signed,
	})
}

func (s *sqlStore) CreateVerifyRecord(filename string, original []byte, result VerifyFields) (string, error) {
	return s.insert(&Record{
		Kind:            KindVerify,
		Filename:        filename,
		OriginalImage:   original,
		DetectionStatus: result.DetectionStatus,
		Confidence:      result.Confidence,
		Context:         result.Context,
		Decision:        result.Decision,
	})
}

func (s *sqlStore) insert(record *Record) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(s.dialect.Rebind(`INSERT INTO records
		(id, kind, filename, original_image, processed_image, detection_status, confidence, context, decision, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, string(record.Kind), record.Filename, record.OriginalImage, record.ProcessedImage,
		record.DetectionStatus, record.Confidence, record.Context, record.Decision, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert %s record: %w", record.Kind, err)
	}

	return id, nil
}

const recordColumns = `id, kind, filename, original_image, processed_image, detection_status, confidence, context, decision, created_at`

func (s *sqlStore) GetRecords(kind Kind) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetRecordByID returns nil without error when no record has the given id.
func (s *sqlStore) GetRecordByID(id string) (*Record, error) {
	row := s.db.QueryRow(s.dialect.Rebind(`SELECT `+recordColumns+` FROM records WHERE id = ?`), id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *sqlStore) DeleteRecord(id string) error {
	_, err := s.db.Exec(s.dialect.Rebind("DELETE FROM records WHERE id = ?"), id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var record Record
	var kind string
	if err := row.Scan(&record.ID, &kind, &record.Filename, &record.OriginalImage, &record.ProcessedImage,
		&record.DetectionStatus, &record.Confidence, &record.Context, &record.Decision, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.Kind = Kind(kind)
	return &record, nil
}

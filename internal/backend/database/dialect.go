package database

import (
	"strconv"
	"strings"
)

// Dialect abstracts the SQL differences between the supported drivers.
type Dialect interface {
	Name() string
	// Rebind rewrites ? placeholders into the driver's placeholder syntax.
	Rebind(query string) string
	BlobType() string
	TimestampType() string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string               { return "sqlite" }
func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) BlobType() string           { return "BLOB" }
func (sqliteDialect) TimestampType() string      { return "DATETIME" }

type postgresDialect struct{}

func (postgresDialect) Name() string          { return "postgres" }
func (postgresDialect) BlobType() string      { return "BYTEA" }
func (postgresDialect) TimestampType() string { return "TIMESTAMPTZ" }

// Rebind numbers placeholders $1, $2, ... in order of appearance.
func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

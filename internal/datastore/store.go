// Package datastore provides the SQLite-backed storage used for the pick
// history. The Store interface exists so tests can swap in a fake without
// touching a real database file.
package datastore

// Store is the persistence surface the history writer needs.
type Store interface {
	// Connect opens the underlying database.
	Connect() error

	// CreateTable runs the given CREATE TABLE IF NOT EXISTS schema.
	CreateTable(schema string) error

	// BatchInsert writes all records into table inside one transaction.
	BatchInsert(table string, records []map[string]any) error

	// Close releases the database connection.
	Close() error
}

// Package sqlite implements ports.TemplateStore on SQLite using the pure-Go
// modernc.org/sqlite driver.
//
// The full template is stored as a JSON body. The columns next to it exist for
// lookups and constraints: a unique index on (lineage_id, version) rejects duplicate
// versions, and the revision column backs optimistic updates.
package sqlite

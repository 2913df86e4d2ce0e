package database

import (
	"fmt"

	"github.com/jroosing/triedns/internal/zone"
)

// ReplaceZone atomically replaces every stored record with entries.
// Later entries replace earlier ones with the same name and type, as in
// zone.Build.
func (db *DB) ReplaceZone(entries []zone.Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM zone_records"); err != nil {
		return fmt.Errorf("failed to clear zone records: %w", err)
	}

	for _, e := range entries {
		if err := putRecord(tx, e.Name, e.Record); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", e.Name, e.Record.QType(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit zone import: %w", err)
	}

	return nil
}

// LoadZone returns the stored records as zone entries, ready for zone.Build.
func (db *DB) LoadZone() ([]zone.Entry, error) {
	records, err := db.ListRecords()
	if err != nil {
		return nil, err
	}

	entries := make([]zone.Entry, 0, len(records))
	for _, r := range records {
		e, err := r.Entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/zone"
)

// ErrRecordNotFound is returned when no row matches a (name, type) pair.
var ErrRecordNotFound = errors.New("zone record not found")

// ZoneRecord is one stored row of the zone.
type ZoneRecord struct {
	ID        int64
	Name      string // presentation form with trailing dot
	Type      string // "A", "CNAME" or "TXT"
	Data      string // presentation form of the rdata
	UpdatedAt time.Time
}

// Entry converts the row into a zone entry.
func (r ZoneRecord) Entry() (zone.Entry, error) {
	name, err := dns.ParseName(r.Name)
	if err != nil {
		return zone.Entry{}, fmt.Errorf("record %d: %w", r.ID, err)
	}
	var rec zone.Record
	if r.Type == dns.TypeTXT.String() {
		// TXT text is stored verbatim; quote stripping only applies to zone files.
		rec = zone.TXT{Text: r.Data}
	} else {
		rec, err = zone.ParseRecord(r.Type, r.Data)
		if err != nil {
			return zone.Entry{}, fmt.Errorf("record %d: %w", r.ID, err)
		}
	}
	return zone.Entry{Name: name, Record: rec}, nil
}

// PutRecord stores rec under name, replacing any record of the same type.
func (db *DB) PutRecord(name dns.Name, rec zone.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := putRecord(db.conn, name, rec); err != nil {
		return fmt.Errorf("failed to store %s %s: %w", name, rec.QType(), err)
	}
	return nil
}

// GetRecord returns the record of type qtype stored under name.
func (db *DB) GetRecord(name dns.Name, qtype dns.QType) (ZoneRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var r ZoneRecord
	err := db.conn.QueryRow(
		"SELECT id, name, type, data, updated_at FROM zone_records WHERE name = ? AND type = ?",
		name.String(), qtype.String(),
	).Scan(&r.ID, &r.Name, &r.Type, &r.Data, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ZoneRecord{}, fmt.Errorf("%w: %s %s", ErrRecordNotFound, name, qtype)
	}
	if err != nil {
		return ZoneRecord{}, fmt.Errorf("failed to get record: %w", err)
	}
	return r, nil
}

// ListRecords returns every stored row ordered by name and type.
func (db *DB) ListRecords() ([]ZoneRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query("SELECT id, name, type, data, updated_at FROM zone_records ORDER BY name, type")
	if err != nil {
		return nil, fmt.Errorf("failed to query zone records: %w", err)
	}
	defer rows.Close()

	var records []ZoneRecord
	for rows.Next() {
		var r ZoneRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Data, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan zone record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zone records: %w", err)
	}

	return records, nil
}

// DeleteRecord removes the record of type qtype stored under name.
func (db *DB) DeleteRecord(name dns.Name, qtype dns.QType) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Exec("DELETE FROM zone_records WHERE name = ? AND type = ?", name.String(), qtype.String())
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s %s", ErrRecordNotFound, name, qtype)
	}

	return nil
}

// CountRecords returns the number of stored rows.
func (db *DB) CountRecords() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM zone_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count zone records: %w", err)
	}
	return n, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func putRecord(ex execer, name dns.Name, rec zone.Record) error {
	_, err := ex.Exec(`
		INSERT INTO zone_records (name, type, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name, type) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, name.String(), rec.QType().String(), rec.Data())
	return err
}

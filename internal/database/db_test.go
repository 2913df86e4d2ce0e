package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/zone"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "zone.db"))
	require.NoError(t, err, "open database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Health())

	version, dirty, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	zv, err := db.GetVersion()
	require.NoError(t, err)
	assert.Zero(t, zv)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zone.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.PutRecord(dns.MustParseName("a.local.dev"), zone.A{Addr: [4]byte{10, 0, 0, 1}}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err, "reopening an up-to-date database")
	defer db.Close()

	n, err := db.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPutGetDeleteRecord(t *testing.T) {
	db := openTestDB(t)
	name := dns.MustParseName("www.example.com")

	require.NoError(t, db.PutRecord(name, zone.A{Addr: [4]byte{192, 0, 2, 1}}))
	require.NoError(t, db.PutRecord(name, zone.A{Addr: [4]byte{192, 0, 2, 2}}), "same type replaces")
	require.NoError(t, db.PutRecord(name, zone.TXT{Text: "hello world"}))

	r, err := db.GetRecord(name, dns.TypeA)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com.", r.Name)
	assert.Equal(t, "A", r.Type)
	assert.Equal(t, "192.0.2.2", r.Data)
	assert.False(t, r.UpdatedAt.IsZero())

	n, err := db.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, db.DeleteRecord(name, dns.TypeA))
	_, err = db.GetRecord(name, dns.TypeA)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, db.DeleteRecord(name, dns.TypeA), ErrRecordNotFound)

	version, err := db.GetVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(4), "every write bumps the version")
}

func TestReplaceZone_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	entries, err := zone.ParseText(`
example.com CNAME www.example.com
*.local.dev A 127.0.0.1
txt.local.dev TXT "quoted text"
`)
	require.NoError(t, err)

	require.NoError(t, db.PutRecord(dns.MustParseName("stale.example.com"), zone.A{}))
	require.NoError(t, db.ReplaceZone(entries))

	loaded, err := db.LoadZone()
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	want := zone.Build(entries)
	got := zone.Build(loaded)
	assert.Equal(t, want.String(), got.String())

	rec, ok := got.Lookup(dns.MustParseName("txt.local.dev"), dns.TypeTXT)
	require.True(t, ok)
	assert.Equal(t, zone.TXT{Text: "quoted text"}, rec)

	_, ok = got.Lookup(dns.MustParseName("stale.example.com"), dns.TypeA)
	assert.False(t, ok, "replace clears previous records")
}

func TestReplaceZone_DuplicateKeepsLast(t *testing.T) {
	db := openTestDB(t)
	name := dns.MustParseName("dup.local.dev")

	require.NoError(t, db.ReplaceZone([]zone.Entry{
		{Name: name, Record: zone.A{Addr: [4]byte{1, 1, 1, 1}}},
		{Name: name, Record: zone.A{Addr: [4]byte{2, 2, 2, 2}}},
	}))

	r, err := db.GetRecord(name, dns.TypeA)
	require.NoError(t, err)
	assert.Equal(t, "2.2.2.2", r.Data)
}

func TestZoneRecord_Entry(t *testing.T) {
	tests := []struct {
		name    string
		row     ZoneRecord
		want    zone.Record
		wantErr bool
	}{
		{"A", ZoneRecord{Name: "a.test.", Type: "A", Data: "10.1.2.3"}, zone.A{Addr: [4]byte{10, 1, 2, 3}}, false},
		{"CNAME", ZoneRecord{Name: "c.test.", Type: "CNAME", Data: "target.test."}, zone.CNAME{Target: dns.MustParseName("target.test")}, false},
		{"TXT keeps quotes", ZoneRecord{Name: "t.test.", Type: "TXT", Data: `"x"`}, zone.TXT{Text: `"x"`}, false},
		{"bad address", ZoneRecord{Name: "a.test.", Type: "A", Data: "nope"}, nil, true},
		{"bad type", ZoneRecord{Name: "a.test.", Type: "MX", Data: "x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.row.Entry()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Record)
			assert.Equal(t, tt.row.Name, e.Name.String())
		})
	}
}

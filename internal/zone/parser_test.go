package zone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/triedns/internal/dns"
)

func TestParseText(t *testing.T) {
	entries, err := ParseText(`
# local development names
example.com      CNAME  www.example.com
*.local.dev      A      127.0.0.1

motd.local.dev   TXT    "welcome to the lab"
`)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "example.com.", entries[0].Name.String())
	assert.Equal(t, CNAME{Target: dns.MustParseName("www.example.com")}, entries[0].Record)
	assert.Equal(t, "*.local.dev.", entries[1].Name.String())
	assert.Equal(t, A{Addr: [4]byte{127, 0, 0, 1}}, entries[1].Record)
	assert.Equal(t, TXT{Text: "welcome to the lab"}, entries[2].Record)
}

func TestParseText_ServesScenario(t *testing.T) {
	entries, err := ParseText("example.com CNAME www.example.com\n*.local.dev A 127.0.0.1\n")
	require.NoError(t, err)
	s := Build(entries)

	rec, ok := s.Lookup(dns.MustParseName("denis.local.dev"), dns.TypeA)
	require.True(t, ok)
	assert.Equal(t, []byte{127, 0, 0, 1}, rec.RData())

	rec, ok = s.Lookup(dns.MustParseName("example.com"), dns.TypeCNAME)
	require.True(t, ok)
	assert.Equal(t, dns.MustParseName("www.example.com").Wire(), rec.RData())
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "missing data", text: "example.com A\n", want: "line 1"},
		{name: "single field", text: "\n\nexample.com\n", want: "line 3"},
		{name: "bad address", text: "# c\nhost.test A 1.2.3\n", want: "line 2"},
		{name: "unsupported type", text: "host.test AAAA ::1\n", want: "unsupported"},
		{name: "label too long", text: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.test A 1.1.1.1\n", want: "label too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zone.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.test A 10.0.0.1\n"), 0o600))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.test.", entries[0].Name.String())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

package dns_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/triedns/internal/dns"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		labels  int
		wantErr error
	}{
		{in: "", want: ".", labels: 0},
		{in: ".", want: ".", labels: 0},
		{in: "example.com", want: "example.com.", labels: 2},
		{in: "www.Example.COM.", want: "www.Example.COM.", labels: 3},
		{in: "a..b", wantErr: dns.ErrEncode},
		{in: strings.Repeat("x", 64) + ".com", wantErr: dns.ErrLabelTooLong},
		{in: strings.Repeat(strings.Repeat("x", 63)+".", 4) + "com", wantErr: dns.ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := dns.ParseName(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
			assert.Len(t, n.Labels(), tt.labels)
		})
	}
}

func TestName_EqualIsCaseSensitive(t *testing.T) {
	a := dns.MustParseName("Example.com")
	b := dns.MustParseName("example.com")

	assert.False(t, a.Equal(b))
	assert.True(t, a.EqualFold(b))
	assert.True(t, a.Equal(dns.MustParseName("Example.com.")))
}

func TestName_Wire(t *testing.T) {
	n := dns.MustParseName("www.example.com")
	want := []byte{3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0}
	assert.Equal(t, want, n.Wire())
	assert.Equal(t, len(want), n.WireLen())
	assert.Equal(t, []byte{0}, dns.Name{}.Wire())
}

// compressedMsg holds foo.local.dev at offset 12 followed by names that
// refer back into it.
func compressedMsg(tail ...byte) []byte {
	msg := make([]byte, 12)
	msg = append(msg, 3, 'f', 'o', 'o', 5, 'l', 'o', 'c', 'a', 'l', 3, 'd', 'e', 'v', 0)
	return append(msg, tail...)
}

func TestDecodeName_Pointers(t *testing.T) {
	tests := []struct {
		name    string
		tail    []byte
		want    string
		wantOff int
	}{
		{name: "whole name", tail: []byte{0xC0, 12}, want: "foo.local.dev.", wantOff: 29},
		{name: "suffix", tail: []byte{0xC0, 16}, want: "local.dev.", wantOff: 29},
		{name: "labels then pointer", tail: []byte{3, 'w', 'w', 'w', 0xC0, 16}, want: "www.local.dev.", wantOff: 33},
		{name: "pointer to root", tail: []byte{0xC0, 26}, want: ".", wantOff: 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := compressedMsg(tt.tail...)
			off := 27
			n, err := dns.DecodeName(msg, &off)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
			assert.Equal(t, tt.wantOff, off)
		})
	}
}

func TestDecodeName_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		tail    []byte
		wantErr error
	}{
		{name: "self pointer", tail: []byte{0xC0, 27}, wantErr: dns.ErrBadPointer},
		{name: "forward pointer", tail: []byte{0xC0, 29, 0}, wantErr: dns.ErrBadPointer},
		{name: "pointer past end", tail: []byte{0xFF, 0xFF}, wantErr: dns.ErrBadPointer},
		{name: "pointer missing second byte", tail: []byte{0xC0}, wantErr: dns.ErrTruncated},
		{name: "label past end", tail: []byte{5, 'a', 'b'}, wantErr: dns.ErrTruncated},
		{name: "no terminator", tail: []byte{1, 'a'}, wantErr: dns.ErrTruncated},
		{name: "length 64", tail: []byte{0x40, 'a'}, wantErr: dns.ErrLabelTooLong},
		{name: "reserved 10 prefix", tail: []byte{0x80, 'a'}, wantErr: dns.ErrLabelTooLong},
		// a label at 27 followed by a pointer back to 27 repeats forever
		// unless the length cap stops it.
		{name: "pointer loop", tail: []byte{1, 'a', 0xC0, 27}, wantErr: dns.ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := compressedMsg(tt.tail...)
			off := 27
			_, err := dns.DecodeName(msg, &off)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, dns.ErrDNSError)
			assert.Equal(t, 27, off, "offset must not move on error")
		})
	}
}

func TestDecodeName_LongChainOfBackwardPointers(t *testing.T) {
	// Each pointer targets the one before it; the first targets a root name.
	msg := []byte{0}
	for i := 0; i < 200; i++ {
		prev := len(msg) - 2
		if i == 0 {
			prev = 0
		}
		msg = append(msg, 0xC0|byte(prev>>8), byte(prev))
	}
	off := len(msg) - 2
	n, err := dns.DecodeName(msg, &off)
	require.NoError(t, err)
	assert.True(t, n.IsRoot())
	assert.Equal(t, len(msg), off)
}

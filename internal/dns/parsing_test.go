package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_RejectsResponse(t *testing.T) {
	// header with QR=1
	msg := make([]byte, 12)
	msg[2] = 0x80
	msg[5] = 1 // qdcount=1
	_, err := ParseRequest(msg)
	assert.ErrorIs(t, err, ErrNotQuery)
}

func TestParseRequest_NoQuestions(t *testing.T) {
	_, err := ParseRequest(make([]byte, 12))
	require.ErrorIs(t, err, ErrDNSError)
	assert.Contains(t, err.Error(), "no questions")
}

func TestParseRequest_Truncated(t *testing.T) {
	_, err := ParseRequest([]byte{0, 1, 0})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestParseRequest_ValidQuery(t *testing.T) {
	q := NewQuery(0x1234, MustParseName("example.com"), TypeA)
	msg, err := q.Encode()
	require.NoError(t, err)

	got, err := ParseRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), got.Header.ID)
	assert.True(t, got.Header.Flags.RD)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "example.com.", got.Questions[0].Name.String())
	assert.Equal(t, TypeA, got.Questions[0].Type)
	assert.Equal(t, ClassIN, got.Questions[0].Class)
}

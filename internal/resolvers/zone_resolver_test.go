package resolvers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/resolvers"
	"github.com/jroosing/triedns/internal/zone"
)

const testZone = `
example.com   CNAME  www.example.com
*.local.dev   A      127.0.0.1
note.test     TXT    hello there
`

func testStore(t *testing.T) *zone.Store {
	t.Helper()
	entries, err := zone.ParseText(testZone)
	require.NoError(t, err)
	return zone.Build(entries)
}

func query(id uint16, questions ...dns.Question) dns.Message {
	return dns.Message{
		Header:    dns.Header{ID: id, Flags: dns.Flags{RD: true}},
		Questions: questions,
	}
}

func question(name string, qtype dns.QType) dns.Question {
	return dns.Question{Name: dns.MustParseName(name), Type: qtype, Class: dns.ClassIN}
}

func resolveZone(t *testing.T, r resolvers.Resolver, req dns.Message) dns.Message {
	t.Helper()
	res, err := r.Resolve(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, resolvers.SourceZone, res.Source)
	resp, err := dns.Decode(res.ResponseBytes)
	require.NoError(t, err)
	return resp
}

func TestZoneResolver_AnswersFromStore(t *testing.T) {
	r := resolvers.NewZoneResolver(testStore(t))

	tests := []struct {
		name  string
		q     dns.Question
		qtype dns.QType
		rdata []byte
	}{
		{
			name:  "wildcard A",
			q:     question("denis.local.dev", dns.TypeA),
			qtype: dns.TypeA,
			rdata: []byte{127, 0, 0, 1},
		},
		{
			name:  "CNAME",
			q:     question("example.com", dns.TypeCNAME),
			qtype: dns.TypeCNAME,
			rdata: dns.MustParseName("www.example.com").Wire(),
		},
		{
			name:  "ANY",
			q:     question("note.test", dns.TypeANY),
			qtype: dns.TypeTXT,
			rdata: append([]byte{11}, "hello there"...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := resolveZone(t, r, query(77, tt.q))

			assert.Equal(t, uint16(77), resp.Header.ID)
			assert.Equal(t, dns.Flags{QR: true, AA: true}, resp.Header.Flags)
			assert.Empty(t, resp.Questions)
			require.Len(t, resp.Answers, 1)

			ans := resp.Answers[0]
			assert.True(t, ans.Name.Equal(tt.q.Name))
			assert.Equal(t, tt.qtype, ans.Type)
			assert.Equal(t, dns.ClassIN, ans.Class)
			assert.Equal(t, int32(resolvers.DefaultTTL), ans.TTL)
			assert.Equal(t, tt.rdata, ans.Data)
		})
	}
}

func TestZoneResolver_MultipleQuestions(t *testing.T) {
	r := resolvers.NewZoneResolver(testStore(t), resolvers.WithTTL(60), resolvers.WithEchoQuestions())
	req := query(5,
		question("a.local.dev", dns.TypeA),
		question("example.com", dns.TypeCNAME),
	)
	req.Header.Flags.Opcode = dns.OpcodeStatus

	resp := resolveZone(t, r, req)
	assert.Equal(t, dns.OpcodeStatus, resp.Header.Flags.Opcode)
	assert.Equal(t, dns.RCodeNoError, resp.Header.Flags.RCode)
	assert.Equal(t, uint16(2), resp.Header.QDCount)
	assert.Equal(t, uint16(2), resp.Header.ANCount)
	require.Len(t, resp.Answers, 2)
	assert.Equal(t, int32(60), resp.Answers[0].TTL)
	assert.Equal(t, "a.local.dev.", resp.Answers[0].Name.String())
	assert.Equal(t, "example.com.", resp.Answers[1].Name.String())
}

func TestZoneResolver_PartialAnswerIsNameError(t *testing.T) {
	r := resolvers.NewZoneResolver(testStore(t))
	req := query(9,
		question("missing.example.org", dns.TypeA),
		question("x.local.dev", dns.TypeA),
	)

	resp := resolveZone(t, r, req)
	assert.Equal(t, dns.RCodeNameError, resp.Header.Flags.RCode)
	assert.True(t, resp.Header.Flags.AA)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, "x.local.dev.", resp.Answers[0].Name.String())
}

func TestZoneResolver_FallthroughReportsMiss(t *testing.T) {
	r := resolvers.NewZoneResolver(testStore(t), resolvers.WithFallthrough())

	_, err := r.Resolve(context.Background(), query(1,
		question("x.local.dev", dns.TypeA),
		question("example.com", dns.TypeA),
	), nil)
	require.ErrorIs(t, err, resolvers.ErrLookupMiss)

	resp := resolveZone(t, r, query(2, question("x.local.dev", dns.TypeA)))
	assert.Len(t, resp.Answers, 1)
}

func TestZoneResolver_OnlyINClassHits(t *testing.T) {
	r := resolvers.NewZoneResolver(testStore(t), resolvers.WithFallthrough())

	q := question("x.local.dev", dns.TypeA)
	q.Class = dns.ClassCH
	_, err := r.Resolve(context.Background(), query(1, q), nil)
	require.ErrorIs(t, err, resolvers.ErrLookupMiss)

	q.Class = dns.ClassANY
	_, err = r.Resolve(context.Background(), query(1, q), nil)
	require.NoError(t, err)
}

func TestZoneResolverClose(t *testing.T) {
	r := resolvers.NewZoneResolver(zone.NewStore())
	assert.NoError(t, r.Close())
}

package server

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/triedns/internal/config"
	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/zone"
)

const testZone = `
# scenario zone
example.com CNAME www.example.com
*.local.dev A 127.0.0.1
`

func testStore(t *testing.T) *zone.Store {
	t.Helper()
	entries, err := zone.ParseText(testZone)
	require.NoError(t, err, "zone parse failed")
	return zone.Build(entries)
}

// startServer runs a UDPServer for cfg on a loopback socket and returns its address.
func startServer(t *testing.T, cfg *config.Config, stats *Stats) *net.UDPAddr {
	t.Helper()
	return startServerWithStore(t, cfg, stats, testStore(t))
}

func startServerWithStore(t *testing.T, cfg *config.Config, stats *Stats, store *zone.Store) *net.UDPAddr {
	t.Helper()
	require.NoError(t, cfg.Validate())

	resolver := BuildResolver(cfg, store, 4)
	t.Cleanup(func() { _ = resolver.Close() })

	srv := &UDPServer{
		Logger:           quietLogger(),
		Handler:          &QueryHandler{Logger: quietLogger(), Resolver: resolver, Timeout: 2 * time.Second, Stats: stats},
		Stats:            stats,
		WorkersPerSocket: 8,
	}
	conns, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, conns) }()
	t.Cleanup(func() {
		cancel()
		_ = srv.Stop(2 * time.Second)
		<-errCh
	})
	return conns[0].LocalAddr().(*net.UDPAddr)
}

// exchange sends raw bytes and returns the reply, or nil if none arrives within wait.
func exchange(t *testing.T, addr *net.UDPAddr, req []byte, wait time.Duration) []byte {
	t.Helper()
	client, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err, "dial udp failed")
	defer client.Close()

	_ = client.SetDeadline(time.Now().Add(wait))
	_, err = client.Write(req)
	require.NoError(t, err, "write failed")

	buf := make([]byte, 4096)
	n, err := client.Read(buf)
	if err != nil {
		return nil
	}
	return buf[:n]
}

func encodeQuery(t *testing.T, id uint16, name string, qtype dns.QType) []byte {
	t.Helper()
	q := dns.NewQuery(id, dns.MustParseName(name), qtype)
	b, err := q.Encode()
	require.NoError(t, err)
	return b
}

// fakeUpstream answers every query with a deterministic miekg-built reply.
func fakeUpstream(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 4096)
		for {
			n, peer, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if reply := upstreamReply(buf[:n]); reply != nil {
				_, _ = conn.WriteToUDP(reply, peer)
			}
		}
	}()
	return conn.LocalAddr().String()
}

func upstreamReply(req []byte) []byte {
	m := new(mdns.Msg)
	if err := m.Unpack(req); err != nil || len(m.Question) == 0 {
		return nil
	}
	r := new(mdns.Msg)
	r.SetReply(m)
	r.Compress = true
	r.RecursionAvailable = true
	rr, err := mdns.NewRR(m.Question[0].Name + " 60 IN A 192.0.2.7")
	if err != nil {
		return nil
	}
	r.Answer = append(r.Answer, rr)
	b, err := r.Pack()
	if err != nil {
		return nil
	}
	return b
}

func TestUDPServer_ZoneAnswers(t *testing.T) {
	stats := NewStats()
	addr := startServer(t, config.Default(), stats)

	tests := []struct {
		name  string
		qname string
		qtype dns.QType
		rdata []byte
	}{
		{"wildcard A", "denis.local.dev", dns.TypeA, []byte{127, 0, 0, 1}},
		{"exact CNAME", "example.com", dns.TypeCNAME, dns.MustParseName("www.example.com").Wire()},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uint16(0xAB00 + i)
			raw := exchange(t, addr, encodeQuery(t, id, tt.qname, tt.qtype), 2*time.Second)
			require.NotNil(t, raw, "no reply")

			resp, err := dns.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, id, resp.Header.ID, "transaction ID mismatch")
			assert.True(t, resp.Header.Flags.QR, "expected QR=1")
			assert.True(t, resp.Header.Flags.AA, "expected AA=1")
			assert.Equal(t, dns.RCodeNoError, resp.Header.Flags.RCode)
			assert.Empty(t, resp.Questions)
			require.Len(t, resp.Answers, 1, "expected 1 answer")
			assert.Equal(t, tt.qtype, resp.Answers[0].Type)
			assert.Equal(t, int32(1024), resp.Answers[0].TTL)
			assert.Equal(t, tt.rdata, resp.Answers[0].Data)
		})
	}

	assert.Equal(t, uint64(2), stats.Snapshot().ResponsesZone)
}

func TestUDPServer_AuthoritativeMiss(t *testing.T) {
	addr := startServer(t, config.Default(), nil)

	raw := exchange(t, addr, encodeQuery(t, 7, "a.b.local.dev", dns.TypeA), 2*time.Second)
	require.NotNil(t, raw, "no reply")

	resp, err := dns.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, dns.RCodeNameError, resp.Header.Flags.RCode)
	assert.Empty(t, resp.Answers)
}

func TestUDPServer_ForwardsMissVerbatim(t *testing.T) {
	cfg := config.Default()
	cfg.Upstream.Servers = []string{fakeUpstream(t)}
	cfg.Upstream.Timeout = "1s"
	stats := NewStats()
	addr := startServer(t, cfg, stats)

	req := encodeQuery(t, 4242, "missing.example.org", dns.TypeA)
	raw := exchange(t, addr, req, 3*time.Second)
	require.NotNil(t, raw, "no reply")

	assert.Equal(t, upstreamReply(req), raw, "upstream reply must be relayed byte for byte")

	// A local hit is still answered from the zone.
	raw = exchange(t, addr, encodeQuery(t, 4243, "x.local.dev", dns.TypeA), 2*time.Second)
	require.NotNil(t, raw)
	resp, err := dns.Decode(raw)
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, []byte{127, 0, 0, 1}, resp.Answers[0].Data)

	snap := stats.Snapshot()
	assert.Equal(t, uint64(1), snap.ResponsesUpstream)
	assert.Equal(t, uint64(1), snap.ResponsesZone)
}

func TestUDPServer_DropsWithoutReply(t *testing.T) {
	stats := NewStats()
	addr := startServer(t, config.Default(), stats)

	query := encodeQuery(t, 9, "denis.local.dev", dns.TypeA)
	response := append([]byte(nil), query...)
	response[2] |= 0x80

	tests := []struct {
		name   string
		req    []byte
		reason string
	}{
		{"short datagram", []byte{0x12, 0x34, 0x01}, DropDecode},
		{"self pointer", append(append([]byte(nil), query[:12]...), 0xC0, 0x0C, 0, 1, 0, 1), DropDecode},
		{"response", response, DropNotQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, exchange(t, addr, tt.req, 300*time.Millisecond))
			require.Eventually(t, func() bool {
				return stats.Snapshot().Dropped[tt.reason] > 0
			}, 2*time.Second, 10*time.Millisecond)
		})
	}

	// The server keeps serving after malformed input.
	assert.NotNil(t, exchange(t, addr, query, 2*time.Second))
}

func TestUDPServer_AccessListDrops(t *testing.T) {
	stats := NewStats()
	acl, err := NewAccessList([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	srv := &UDPServer{
		Handler: &QueryHandler{Resolver: BuildResolver(config.Default(), testStore(t), 1), Stats: stats},
		Access:  acl,
		Stats:   stats,
	}
	conns, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, conns) }()
	defer func() { _ = srv.Stop(time.Second) }()

	addr := conns[0].LocalAddr().(*net.UDPAddr)
	assert.Nil(t, exchange(t, addr, encodeQuery(t, 1, "denis.local.dev", dns.TypeA), 300*time.Millisecond))
	assert.Equal(t, uint64(1), stats.Snapshot().Dropped[DropAccessDenied])
	assert.Zero(t, stats.Snapshot().QueriesTotal)
}

func TestRunner_ServesUntilCancelled(t *testing.T) {
	probe, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := probe.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, probe.Close())

	cfg := config.Default()
	cfg.Server.Port = port
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRunner(quietLogger(), NewStats()).RunWithContext(ctx, cfg, testStore(t)) }()

	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	req := encodeQuery(t, 77, "denis.local.dev", dns.TypeA)
	require.Eventually(t, func() bool {
		return exchange(t, addr, req, 200*time.Millisecond) != nil
	}, 3*time.Second, 50*time.Millisecond, "runner never answered on port "+strconv.Itoa(port))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(StopTimeout + 2*time.Second):
		t.Fatal("runner did not stop")
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/pool"
	"github.com/jroosing/triedns/internal/resolvers"
)

// DefaultWorkersPerSocket bounds concurrent handlers per receive loop when
// WorkersPerSocket is unset.
const DefaultWorkersPerSocket = 1024

// bufferPool holds receive buffers. Datagrams longer than dns.MaxUDPSize are
// cut to that size by the read.
var bufferPool = pool.NewBuffers(dns.MaxUDPSize)

// packet is one received datagram. The handler task owns bufPtr until it
// returns it to bufferPool.
type packet struct {
	bufPtr *[]byte
	n      int
	peer   *net.UDPAddr
}

// UDPServer handles DNS queries over UDP.
//
// Features:
//   - One receive loop per bound socket; Sockets > 1 binds with SO_REUSEPORT
//   - A task per admitted datagram, so reception never waits on processing
//   - Access list and rate limiting before a task is spawned
//   - Semaphore-based concurrency limiting (datagrams over the bound are dropped)
//   - Graceful shutdown with timeout
type UDPServer struct {
	Logger           *slog.Logger  // Optional logger
	Handler          *QueryHandler // Query processor
	Limiter          *RateLimiter  // Optional per-IP rate limiter
	Access           *AccessList   // Optional client access list
	Stats            *Stats        // Optional statistics
	Sockets          int           // Receive loops bound to the address (default 1)
	WorkersPerSocket int           // Maximum concurrent handlers per socket

	mu       sync.Mutex
	conns    []*net.UDPConn
	stopping bool           // set by Stop; no request starts afterwards
	wg       sync.WaitGroup // Tracks in-flight requests
}

// Listen binds the server's sockets. With more than one socket every bind
// uses SO_REUSEPORT and the later sockets reuse the port the first one got,
// so ":0" works.
func (s *UDPServer) Listen(addr string) ([]*net.UDPConn, error) {
	n := max(s.Sockets, 1)
	if n == 1 {
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return nil, err
		}
		conn, err := net.ListenUDP("udp", udpAddr)
		if err != nil {
			return nil, err
		}
		s.track(conn)
		return []*net.UDPConn{conn}, nil
	}

	conns := make([]*net.UDPConn, 0, n)
	for i := range n {
		if i > 0 {
			addr = conns[0].LocalAddr().String()
		}
		conn, err := listenReusePort(addr)
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return nil, fmt.Errorf("udp socket %d: %w", i, err)
		}
		conns = append(conns, conn)
	}
	for _, c := range conns {
		s.track(c)
	}
	return conns, nil
}

// Serve runs one receive loop per connection and returns when all loops exit.
func (s *UDPServer) Serve(ctx context.Context, conns []*net.UDPConn) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range conns {
		g.Go(func() error { return s.RunOnConn(gctx, c) })
	}
	return g.Wait()
}

// listenReusePort creates a UDP socket with SO_REUSEPORT enabled, letting the
// kernel spread datagrams for one address across several sockets.
func listenReusePort(addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// RunOnConn runs a receive loop on an existing UDP connection.
// This is useful for testing and when the caller manages the socket.
//
// Request processing flow:
//  1. Read datagram into a pooled buffer (1s deadline for shutdown checks)
//  2. Access list and rate limiting (drop if refused)
//  3. Acquire semaphore slot (drop if at max concurrency)
//  4. Decode, resolve, encode and send in a new goroutine
func (s *UDPServer) RunOnConn(ctx context.Context, conn *net.UDPConn) error {
	if !s.tracked(conn) {
		s.track(conn)
	}
	defer conn.Close()

	workers := s.WorkersPerSocket
	if workers <= 0 {
		workers = DefaultWorkersPerSocket
	}
	sem := make(chan struct{}, workers)

	for ctx.Err() == nil {
		p, err := s.receivePacket(conn)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		if !s.admit(p.peer) {
			bufferPool.Put(p.bufPtr)
			continue
		}

		select {
		case sem <- struct{}{}:
		default:
			s.Stats.RecordDrop(DropOverloaded)
			bufferPool.Put(p.bufPtr)
			continue
		}

		if !s.beginRequest() {
			<-sem
			bufferPool.Put(p.bufPtr)
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer func() { <-sem }()
			s.handlePacket(ctx, conn, p)
		}()
	}
	return nil
}

func (s *UDPServer) track(conn *net.UDPConn) {
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()
}

func (s *UDPServer) tracked(conn *net.UDPConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.conns, conn)
}

// receivePacket reads one datagram into a pooled buffer.
func (s *UDPServer) receivePacket(conn *net.UDPConn) (packet, error) {
	bufPtr := bufferPool.Get()

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	n, remote, err := conn.ReadFromUDP(*bufPtr)
	if err == nil && remote == nil {
		err = errors.New("datagram without source address")
	}
	if err != nil {
		bufferPool.Put(bufPtr)
		return packet{}, err
	}
	return packet{bufPtr: bufPtr, n: n, peer: remote}, nil
}

// admit applies the access list and rate limits to a datagram's source.
func (s *UDPServer) admit(peer *net.UDPAddr) bool {
	ip, ok := netipAddrFromUDPAddr(peer)
	if !ok {
		return false
	}
	if !s.Access.Allowed(ip) {
		s.Stats.RecordDrop(DropAccessDenied)
		return false
	}
	if !s.Limiter.AllowAddr(ip) {
		s.Stats.RecordDrop(DropRateLimited)
		return false
	}
	return true
}

// netipAddrFromUDPAddr converts a UDP source address, unmapping IPv4-in-IPv6.
func netipAddrFromUDPAddr(addr *net.UDPAddr) (netip.Addr, bool) {
	if addr == nil {
		return netip.Addr{}, false
	}
	ip, ok := netip.AddrFromSlice(addr.IP)
	if !ok {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// handlePacket processes one datagram and sends the reply, if any, to its source.
func (s *UDPServer) handlePacket(ctx context.Context, conn *net.UDPConn, p packet) {
	defer bufferPool.Put(p.bufPtr)

	if s.Handler == nil {
		return
	}

	res := s.Handler.Handle(ctx, p.peer.String(), (*p.bufPtr)[:p.n])
	if len(res.ResponseBytes) == 0 {
		return
	}
	out := res.ResponseBytes
	if res.Source == resolvers.SourceZone {
		out = truncateUDPResponse(out, dns.MaxUDPSize)
		if len(out) < len(res.ResponseBytes) {
			s.Stats.RecordTruncated()
		}
	}
	if _, err := conn.WriteToUDP(out, p.peer); err != nil && s.Logger != nil {
		s.Logger.Debug("udp write failed", "dst", p.peer.String(), "err", err)
	}
}

// beginRequest registers an in-flight request unless Stop has begun. The
// WaitGroup is only added to under s.mu, so Add never races Stop's Wait.
func (s *UDPServer) beginRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.wg.Add(1)
	return true
}

// Stop closes the sockets and waits up to timeout for in-flight requests.
// A zero timeout waits indefinitely.
func (s *UDPServer) Stop(timeout time.Duration) error {
	s.mu.Lock()
	s.stopping = true
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
	s.mu.Unlock()

	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("udp server: timeout waiting for in-flight requests")
	}
}

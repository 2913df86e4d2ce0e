package resolvers

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/pool"
)

// Forwarding resolver configuration constants.
const (
	maxUpstreams             = 3         // Maximum number of upstream servers to use
	upstreamRecoveryDuration = time.Hour // How long to wait before retrying a failed upstream

	// Default configuration values
	DefaultUDPPoolSize = 64 // Default idle UDP sockets kept per upstream
	DefaultUDPTimeout  = 3 * time.Second
	DefaultMaxRetries  = 2 // Maximum query attempts per upstream

	defaultUpstreamPort = "53"
	maxReplySize        = 4096 // Receive buffer; replies may exceed 512 when the client sent OPT
)

var replyBuffers = pool.NewBuffers(maxReplySize)

// ForwardingResolver relays queries to upstream servers.
//
// Features:
//   - The client's datagram is sent verbatim and the reply relayed unmodified
//   - Each in-flight forward owns a connected UDP socket for its whole
//     exchange, so concurrent forwards never read each other's replies
//   - Idle sockets are pooled per upstream between requests
//   - Replies are matched on transaction ID, QR and question; anything else
//     arriving on the socket is discarded
//   - Upstream health tracking with automatic failover
//
// Upstream Health:
//
// Failed upstreams are marked as failed for 1 hour. After that, they are
// automatically tried again. Failover prioritizes upstreams in order.
type ForwardingResolver struct {
	upstreams []string // host:port of each upstream server

	timeout    time.Duration // Wait for one reply
	maxRetries int           // Attempts per upstream when the wait times out

	// Upstream health tracking
	healthMu         sync.Mutex
	upstreamFailedAt map[string]time.Time

	// Idle UDP sockets per upstream
	poolMu   sync.Mutex
	udpPools map[string]chan *net.UDPConn
	poolSize int
}

// NewForwardingResolver creates a ForwardingResolver.
//
// Parameters:
//   - upstreams: upstream addresses as "ip" or "ip:port" (max 3 used, port defaults to 53)
//   - poolSize: idle UDP sockets kept per upstream
//   - timeout: how long each attempt waits for a matching reply
//   - maxRetries: attempts per upstream before failing over
func NewForwardingResolver(upstreams []string, poolSize int, timeout time.Duration, maxRetries int) *ForwardingResolver {
	normalized := make([]string, 0, min(len(upstreams), maxUpstreams))
	for _, u := range upstreams {
		if len(normalized) == maxUpstreams {
			break
		}
		normalized = append(normalized, withDefaultPort(u))
	}
	if poolSize <= 0 {
		poolSize = DefaultUDPPoolSize
	}
	if timeout <= 0 {
		timeout = DefaultUDPTimeout
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &ForwardingResolver{
		upstreams:        normalized,
		timeout:          timeout,
		maxRetries:       maxRetries,
		upstreamFailedAt: map[string]time.Time{},
		udpPools:         map[string]chan *net.UDPConn{},
		poolSize:         poolSize,
	}
}

func withDefaultPort(up string) string {
	if _, _, err := net.SplitHostPort(up); err == nil {
		return up
	}
	return net.JoinHostPort(up, defaultUpstreamPort)
}

// Upstreams returns the configured upstream addresses.
func (f *ForwardingResolver) Upstreams() []string {
	return append([]string(nil), f.upstreams...)
}

// Close releases all pooled UDP connections.
func (f *ForwardingResolver) Close() error {
	f.poolMu.Lock()
	defer f.poolMu.Unlock()
	for _, ch := range f.udpPools {
		close(ch)
		for c := range ch {
			_ = c.Close()
		}
	}
	f.udpPools = map[string]chan *net.UDPConn{}
	return nil
}

// Resolve forwards reqBytes to an upstream and returns its reply bytes.
//
// Resolution strategy:
//  1. Start at the preferred healthy upstream
//  2. Query it, retrying on timeout
//  3. On failure, mark it failed and move to the next upstream. An
//     undecodable reply ends resolution without marking the upstream
//
// Goroutine lifecycle: No goroutines spawned by this method.
// All network I/O is synchronous and respects context cancellation.
func (f *ForwardingResolver) Resolve(ctx context.Context, req dns.Message, reqBytes []byte) (Result, error) {
	if len(f.upstreams) == 0 {
		return Result{}, fmt.Errorf("%w: no upstream servers configured", ErrForward)
	}

	startIdx := f.findUpstreamIndex(f.selectUpstream())
	var lastErr error

	for j := range len(f.upstreams) {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrForward, ctx.Err())
		}
		u := f.upstreams[(startIdx+j)%len(f.upstreams)]
		if !f.canTryUpstream(u) {
			continue
		}

		resp, err := f.queryOne(ctx, u, req, reqBytes)
		if errors.Is(err, ErrBadReply) {
			// A content problem; other upstreams would relay the same data.
			return Result{}, fmt.Errorf("%w: %s: %w", ErrForward, u, err)
		}
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: %w", ErrForward, u, err)
			f.markFailed(u)
			continue
		}
		f.markHealthy(u)
		return Result{ResponseBytes: resp, Source: SourceUpstream}, nil
	}

	if lastErr != nil {
		return Result{}, lastErr
	}
	return Result{}, fmt.Errorf("%w: no upstream servers available", ErrForward)
}

// findUpstreamIndex returns the index of the given upstream server.
func (f *ForwardingResolver) findUpstreamIndex(upstream string) int {
	for i, u := range f.upstreams {
		if u == upstream {
			return i
		}
	}
	return 0
}

// canTryUpstream checks if an upstream is healthy or has recovered.
// An upstream is considered recovered after upstreamRecoveryDuration.
func (f *ForwardingResolver) canTryUpstream(up string) bool {
	f.healthMu.Lock()
	defer f.healthMu.Unlock()

	failedAt, ok := f.upstreamFailedAt[up]
	if !ok {
		return true // never failed
	}
	if time.Since(failedAt) >= upstreamRecoveryDuration {
		delete(f.upstreamFailedAt, up)
		return true // recovered
	}
	return false // still in cooldown
}

// selectUpstream returns the best upstream server to use.
// Prefers healthy upstreams in order; if all have failed, clears the failure
// state and returns the first upstream.
func (f *ForwardingResolver) selectUpstream() string {
	for _, u := range f.upstreams {
		if f.canTryUpstream(u) {
			return u
		}
	}

	// All upstreams have failed - clear state and retry from first
	f.healthMu.Lock()
	f.upstreamFailedAt = map[string]time.Time{}
	f.healthMu.Unlock()
	return f.upstreams[0]
}

// markFailed records the current time as the failure timestamp for an upstream.
// Only marks failure once; subsequent failures don't update the timestamp.
func (f *ForwardingResolver) markFailed(up string) {
	f.healthMu.Lock()
	defer f.healthMu.Unlock()
	if _, ok := f.upstreamFailedAt[up]; !ok {
		f.upstreamFailedAt[up] = time.Now()
	}
}

// markHealthy clears the failure state for an upstream.
func (f *ForwardingResolver) markHealthy(up string) {
	f.healthMu.Lock()
	defer f.healthMu.Unlock()
	delete(f.upstreamFailedAt, up)
}

// ensurePool returns or creates the idle socket pool for an upstream.
func (f *ForwardingResolver) ensurePool(up string) chan *net.UDPConn {
	f.poolMu.Lock()
	defer f.poolMu.Unlock()
	ch, ok := f.udpPools[up]
	if !ok {
		ch = make(chan *net.UDPConn, f.poolSize)
		f.udpPools[up] = ch
	}
	return ch
}

// queryOne sends the query to a single upstream, retrying on timeout.
func (f *ForwardingResolver) queryOne(ctx context.Context, up string, req dns.Message, reqBytes []byte) ([]byte, error) {
	pool := f.ensurePool(up)

	var lastErr error
	for range f.maxRetries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := f.queryOneAttempt(ctx, pool, up, req, reqBytes)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Only retry on timeout errors
		if !isTimeoutError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isTimeoutError checks if an error is a timeout error worth retrying.
func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// queryOneAttempt performs one exchange on a socket held exclusively for it.
func (f *ForwardingResolver) queryOneAttempt(
	ctx context.Context,
	pool chan *net.UDPConn,
	up string,
	req dns.Message,
	reqBytes []byte,
) ([]byte, error) {
	c, err := f.acquireConnection(ctx, pool, up)
	if err != nil {
		return nil, err
	}

	connOK := true
	defer func() {
		f.releaseConnection(c, up, pool, connOK)
	}()

	// Set deadline from timeout or context, whichever is sooner
	deadline := time.Now().Add(f.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = c.SetDeadline(deadline)

	if _, writeErr := c.Write(reqBytes); writeErr != nil {
		connOK = false
		return nil, writeErr
	}

	bufPtr := replyBuffers.Get()
	defer replyBuffers.Put(bufPtr)
	buf := *bufPtr
	for {
		n, err := c.Read(buf)
		if err != nil {
			connOK = false
			return nil, err
		}
		resp := buf[:n]

		match, err := matchReply(req, resp)
		if err != nil {
			return nil, err
		}
		if match {
			return bytes.Clone(resp), nil
		}
		// A late reply to an earlier exchange on this socket; keep waiting.
	}
}

// acquireConnection takes an idle socket from the pool or dials a new one.
func (f *ForwardingResolver) acquireConnection(
	ctx context.Context,
	pool chan *net.UDPConn,
	up string,
) (*net.UDPConn, error) {
	select {
	case c := <-pool:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		addr, err := net.ResolveUDPAddr("udp", up)
		if err != nil {
			return nil, err
		}
		return net.DialUDP("udp", nil, addr)
	}
}

// releaseConnection returns a connection to the pool or closes it.
// Sockets released after Close find their pool gone and are closed.
func (f *ForwardingResolver) releaseConnection(c *net.UDPConn, up string, pool chan *net.UDPConn, connOK bool) {
	if !connOK {
		_ = c.Close()
		return
	}
	f.poolMu.Lock()
	defer f.poolMu.Unlock()
	if f.udpPools[up] != pool {
		_ = c.Close()
		return
	}
	select {
	case pool <- c:
	default:
		_ = c.Close() // pool full
	}
}

// matchReply reports whether resp answers req.
//
// Datagrams that are too short, carry another transaction ID or are not
// responses belong to some other exchange and are skipped (false, nil).
// A reply with our ID that fails to decode is an error. A decoded reply
// must echo the request's first question; names compare case-insensitively.
func matchReply(req dns.Message, resp []byte) (bool, error) {
	if len(resp) < dns.HeaderSize {
		return false, nil
	}
	if binary.BigEndian.Uint16(resp[0:2]) != req.Header.ID || resp[2]&byte(dns.QRFlag>>8) == 0 {
		return false, nil
	}

	msg, err := dns.Decode(resp)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBadReply, err)
	}
	if len(req.Questions) == 0 {
		return true, nil
	}
	if len(msg.Questions) == 0 {
		// Some servers omit the question on errors; the ID already matched.
		return msg.Header.Flags.RCode != dns.RCodeNoError, nil
	}

	reqQ, resQ := req.Questions[0], msg.Questions[0]
	return reqQ.Name.EqualFold(resQ.Name) && reqQ.Type == resQ.Type && reqQ.Class == resQ.Class, nil
}

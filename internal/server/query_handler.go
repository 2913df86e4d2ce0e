// Package server implements the UDP dispatcher: receive loops, per-datagram
// tasks, admission control and the runner that wires them to the resolvers.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/resolvers"
)

// DefaultHandlerTimeout bounds one request's resolution when Timeout is unset.
const DefaultHandlerTimeout = 4 * time.Second

// QueryHandler runs one datagram through decode, resolve and encode.
//
// Failures never produce a reply: undecodable requests, forwarding failures,
// encode failures and timeouts are logged and the datagram is dropped. The
// client's own retry timer is the recovery path.
type QueryHandler struct {
	Logger   *slog.Logger       // Optional logger
	Resolver resolvers.Resolver // The resolver chain to process queries
	Timeout  time.Duration      // Maximum time for query resolution (default: 4s)
	Stats    *Stats             // Optional statistics
}

// HandleResult contains the outcome of query processing.
type HandleResult struct {
	ResponseBytes []byte      // Serialized DNS response; nil when dropped
	Source        string      // Answer source, or the drop reason
	Parsed        dns.Message // Parsed request (if ParsedOK is true)
	ParsedOK      bool        // Whether the request was successfully parsed
}

// Dropped reports whether no reply should be sent.
func (r HandleResult) Dropped() bool {
	return len(r.ResponseBytes) == 0
}

// Handle processes a DNS request and returns the response to send, if any.
//
// Processing steps:
//  1. Decode the request; responses (QR=1) and malformed datagrams are dropped
//  2. Resolve with timeout
//  3. Log the outcome (DEBUG for answers, WARN/ERROR for drops)
func (h *QueryHandler) Handle(ctx context.Context, src string, reqBytes []byte) HandleResult {
	start := time.Now()
	h.Stats.RecordQuery()

	parsed, err := dns.ParseRequest(reqBytes)
	if err != nil {
		if errors.Is(err, dns.ErrNotQuery) {
			h.logDebug(ctx, "dropping response datagram", "src", src)
			return h.drop(DropNotQuery)
		}
		h.log(slog.LevelWarn, "dropping undecodable request", "src", src, "bytes", len(reqBytes), "err", err)
		return h.drop(DropDecode)
	}

	qname, qtype := extractQuestionInfo(parsed)

	res, err := h.resolveWithTimeout(ctx, parsed, reqBytes)
	if err != nil {
		reason := classifyError(err)
		level := slog.LevelWarn
		if reason == DropEncode || reason == DropResolve {
			level = slog.LevelError
		}
		h.log(level, "dropping request", "src", src, "id", int(parsed.Header.ID),
			"qname", qname, "qtype", qtype, "reason", reason, "err", err)
		out := h.drop(reason)
		out.Parsed, out.ParsedOK = parsed, true
		return out
	}

	elapsed := time.Since(start)
	h.Stats.RecordResponse(res.Source, elapsed)
	h.logDebug(ctx, "dns request",
		"src", src,
		"id", int(parsed.Header.ID),
		"qname", qname,
		"qtype", qtype,
		"bytes", len(reqBytes),
		"source", res.Source,
		"latency", elapsed,
	)

	return HandleResult{
		ResponseBytes: res.ResponseBytes,
		Source:        res.Source,
		Parsed:        parsed,
		ParsedOK:      true,
	}
}

func (h *QueryHandler) drop(reason string) HandleResult {
	h.Stats.RecordDrop(reason)
	return HandleResult{Source: reason}
}

// classifyError maps a resolution failure to a drop reason.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return DropTimeout
	case errors.Is(err, resolvers.ErrForward):
		return DropForward
	case errors.Is(err, dns.ErrEncode):
		return DropEncode
	default:
		return DropResolve
	}
}

// extractQuestionInfo extracts the QNAME and QTYPE of the first question for logging.
func extractQuestionInfo(parsed dns.Message) (qname string, qtype string) {
	if len(parsed.Questions) == 0 {
		return "<no-question>", "-"
	}
	q := parsed.Questions[0]
	return q.Name.String(), q.Type.String()
}

// resolveWithTimeout runs the resolver under a per-request deadline. The
// resolvers honor the context, so the call returns by the deadline and
// reqBytes is not referenced afterwards.
func (h *QueryHandler) resolveWithTimeout(ctx context.Context, parsed dns.Message, reqBytes []byte) (resolvers.Result, error) {
	if h.Resolver == nil {
		return resolvers.Result{}, errors.New("no resolver configured")
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHandlerTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return h.Resolver.Resolve(ctx, parsed, reqBytes)
}

func (h *QueryHandler) log(level slog.Level, msg string, args ...any) {
	if h.Logger == nil {
		return
	}
	h.Logger.Log(context.Background(), level, msg, args...)
}

func (h *QueryHandler) logDebug(ctx context.Context, msg string, args ...any) {
	if h.Logger == nil || !h.Logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	h.Logger.Debug(msg, args...)
}

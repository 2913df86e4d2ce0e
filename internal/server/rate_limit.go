package server

import (
	"fmt"
	"math"
	"net/netip"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"
)

// This file implements pre-parse admission control using token bucket rate limiting.
//
// Rate limiting is applied at three levels:
//   - Global: Overall server-wide query rate limit
//   - Prefix: Per-network prefix limit (/24 for IPv4, /64 for IPv6)
//   - IP: Per source IP limit
//
// Each level keeps one rate.Limiter per key. Keys are hashed with xxhash so
// the tables hold fixed-size map keys.

// RateLimiter combines global, prefix, and per-IP rate limiters.
// A request must pass all three levels to be allowed.
type RateLimiter struct {
	global *KeyedLimiter // Server-wide rate limit
	prefix *KeyedLimiter // Per network prefix rate limit
	ip     *KeyedLimiter // Per source IP rate limit
}

// RateLimitSettings contains rate limiting configuration values.
// This is used to create a RateLimiter from configuration.
type RateLimitSettings struct {
	CleanupSeconds   float64
	MaxIPEntries     int
	MaxPrefixEntries int
	GlobalQPS        float64
	GlobalBurst      int
	PrefixQPS        float64
	PrefixBurst      int
	IPQPS            float64
	IPBurst          int
}

// NewRateLimiter creates a RateLimiter from the provided settings.
func NewRateLimiter(s RateLimitSettings) *RateLimiter {
	cleanupInterval := time.Duration(math.Max(0.0, s.CleanupSeconds) * float64(time.Second))
	if cleanupInterval <= 0 {
		cleanupInterval = 60 * time.Second
	}

	return &RateLimiter{
		global: NewKeyedLimiter(
			KeyedLimiterConfig{Rate: s.GlobalQPS, Burst: s.GlobalBurst, CleanupInterval: cleanupInterval, MaxEntries: 1},
		),
		prefix: NewKeyedLimiter(
			KeyedLimiterConfig{
				Rate:            s.PrefixQPS,
				Burst:           s.PrefixBurst,
				CleanupInterval: cleanupInterval,
				MaxEntries:      s.MaxPrefixEntries,
			},
		),
		ip: NewKeyedLimiter(
			KeyedLimiterConfig{
				Rate:            s.IPQPS,
				Burst:           s.IPBurst,
				CleanupInterval: cleanupInterval,
				MaxEntries:      s.MaxIPEntries,
			},
		),
	}
}

// Allow checks if a request from srcIP should be allowed.
// Returns true if the request passes all rate limit levels.
func (r *RateLimiter) Allow(srcIP string) bool {
	if r == nil {
		return true
	}
	// Fail fast: if global limit is exceeded, don't check others
	if !r.global.Allow("*") {
		return false
	}
	if !r.prefix.Allow(prefixKey(srcIP)) {
		return false
	}
	return r.ip.Allow(srcIP)
}

// AllowAddr checks if a request from the given netip.Addr should be allowed.
func (r *RateLimiter) AllowAddr(ip netip.Addr) bool {
	if r == nil {
		return true
	}
	if !r.global.Allow("*") {
		return false
	}
	if !r.prefix.Allow(prefixKeyFromAddr(ip)) {
		return false
	}
	return r.ip.Allow(ip.String())
}

// prefixKeyFromAddr returns the prefix key for a netip.Addr.
// Uses /24 for IPv4 and /64 for IPv6, in the same form as prefixKey.
func prefixKeyFromAddr(ip netip.Addr) string {
	ip = ip.Unmap()
	if ip.Is4() {
		pfx, _ := ip.Prefix(24)
		return "v4:" + pfx.String()
	}
	pfx, _ := ip.Prefix(64)
	return "v6:" + pfx.String()
}

// FormatRateLimitsLog returns a human-readable summary of rate limit configuration.
func FormatRateLimitsLog(s RateLimitSettings) string {
	fmtLimiter := func(name string, rate float64, burst int) string {
		if rate <= 0.0 || burst <= 0 {
			return name + "=disabled"
		}
		return fmt.Sprintf("%s=%gqps/%d", name, rate, burst)
	}

	return fmt.Sprintf(
		"%s %s %s cleanup_s=%g max_ip=%d max_prefix=%d",
		fmtLimiter("global", s.GlobalQPS, s.GlobalBurst),
		fmtLimiter("prefix", s.PrefixQPS, s.PrefixBurst),
		fmtLimiter("ip", s.IPQPS, s.IPBurst),
		s.CleanupSeconds,
		s.MaxIPEntries,
		s.MaxPrefixEntries,
	)
}

// KeyedLimiterConfig configures a KeyedLimiter.
type KeyedLimiterConfig struct {
	Rate            float64       // Tokens replenished per second (queries per second)
	Burst           int           // Maximum tokens (burst capacity)
	CleanupInterval time.Duration // How often to clean up stale entries
	MaxEntries      int           // Maximum tracked keys (prevents memory exhaustion)
}

// KeyedLimiter keeps one token bucket per key.
//
// Each bucket allows short bursts up to Burst requests while limiting the
// long-term average to Rate requests per second. Limiting is disabled when
// Rate or Burst is <= 0.
type KeyedLimiter struct {
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	maxEntries      int

	mu          sync.Mutex // Protects all fields below
	lastCleanup time.Time
	entries     map[uint64]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter creates a new rate limiter with the given configuration.
func NewKeyedLimiter(cfg KeyedLimiterConfig) *KeyedLimiter {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 1
	}
	ci := cfg.CleanupInterval
	if ci <= 0 {
		ci = 60 * time.Second
	}
	return &KeyedLimiter{
		limit:           rate.Limit(cfg.Rate),
		burst:           cfg.Burst,
		cleanupInterval: ci,
		maxEntries:      maxEntries,
		lastCleanup:     time.Now(),
		entries:         map[uint64]*limiterEntry{},
	}
}

// Allow checks if a request for the given key should be allowed and
// consumes a token if so.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *KeyedLimiter) allowAt(key string, now time.Time) bool {
	if l == nil || l.limit <= 0 || l.burst <= 0 {
		return true
	}
	h := xxhash.Sum64String(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) > l.cleanupInterval {
		l.cleanupLocked(now)
	}

	e, ok := l.entries[h]
	if !ok {
		if len(l.entries) >= l.maxEntries {
			l.cleanupLocked(now)
			if len(l.entries) >= l.maxEntries {
				// Still at capacity - deny new entries
				return false
			}
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[h] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// cleanupLocked removes entries that haven't been accessed recently.
// Must be called with l.mu held.
func (l *KeyedLimiter) cleanupLocked(now time.Time) {
	staleBefore := now.Add(-l.cleanupInterval)
	for k, e := range l.entries {
		if !e.lastSeen.After(staleBefore) {
			delete(l.entries, k)
		}
	}
	l.lastCleanup = now
}

// prefixKey converts an IP address to a network prefix key.
// IPv4 addresses are converted to /24 prefixes.
// IPv6 addresses are converted to /64 prefixes.
func prefixKey(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "ip:" + ip
	}
	return prefixKeyFromAddr(addr)
}

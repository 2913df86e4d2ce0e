package server

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrefixKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.9", "v4:203.0.113.0/24"},
		{"2001:db8::1", "v6:2001:db8::/64"},
		{"::ffff:203.0.113.9", "v4:203.0.113.0/24"},
		{"not-an-ip", "ip:not-an-ip"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, prefixKey(tt.in))
		})
	}
}

func TestPrefixKeyFromAddr_MatchesStringForm(t *testing.T) {
	for _, s := range []string{"192.168.1.77", "2001:db8:1:2::9"} {
		assert.Equal(t, prefixKey(s), prefixKeyFromAddr(netip.MustParseAddr(s)))
	}
}

func TestKeyedLimiter_BurstThenRefill(t *testing.T) {
	l := NewKeyedLimiter(KeyedLimiterConfig{Rate: 1, Burst: 2, MaxEntries: 10})
	now := time.Now()

	assert.True(t, l.allowAt("k", now))
	assert.True(t, l.allowAt("k", now))
	assert.False(t, l.allowAt("k", now), "burst exhausted")

	assert.True(t, l.allowAt("k", now.Add(time.Second)), "one token refilled after 1s")
	assert.False(t, l.allowAt("k", now.Add(time.Second)))
}

func TestKeyedLimiter_MaxEntries(t *testing.T) {
	l := NewKeyedLimiter(KeyedLimiterConfig{Rate: 10, Burst: 10, MaxEntries: 1, CleanupInterval: time.Minute})
	now := time.Now()

	assert.True(t, l.allowAt("a", now))
	assert.False(t, l.allowAt("b", now), "table full")
	assert.Equal(t, 1, l.Len())

	// Once "a" goes stale the slot is reclaimed.
	assert.True(t, l.allowAt("b", now.Add(2*time.Minute)))
	assert.Equal(t, 1, l.Len())
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  KeyedLimiterConfig
	}{
		{"zero rate", KeyedLimiterConfig{Rate: 0, Burst: 10}},
		{"zero burst", KeyedLimiterConfig{Rate: 10, Burst: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewKeyedLimiter(tt.cfg)
			for range 100 {
				assert.True(t, l.Allow("k"))
			}
			assert.Zero(t, l.Len())
		})
	}

	var nilLimiter *KeyedLimiter
	assert.True(t, nilLimiter.Allow("k"))
}

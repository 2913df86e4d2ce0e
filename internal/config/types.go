package config

import (
	"strconv"
	"time"
)

// WorkersMode specifies how worker count is determined.
type WorkersMode int

const (
	// WorkersAuto automatically determines worker count based on available CPUs.
	WorkersAuto WorkersMode = iota
	// WorkersFixed uses a specific worker count.
	WorkersFixed
)

// WorkerSetting represents the workers configuration.
type WorkerSetting struct {
	Mode  WorkersMode
	Value int
}

// String returns the string representation of the worker setting.
func (w WorkerSetting) String() string {
	if w.Mode == WorkersAuto {
		return "auto"
	}
	return strconv.Itoa(w.Value)
}

// ServerConfig contains DNS listener settings.
type ServerConfig struct {
	Host           string        `toml:"host" json:"host" validate:"required,ip"`
	Port           int           `toml:"port" json:"port" validate:"min=1,max=65535"`
	Sockets        int           `toml:"sockets" json:"sockets" validate:"min=1,max=64"` // Receive loops bound to the address
	Workers        WorkerSetting `toml:"-" json:"-"`
	WorkersRaw     string        `toml:"workers" json:"workers"`
	MaxConcurrency int           `toml:"max_concurrency" json:"max_concurrency" validate:"min=0"`
	HandlerTimeout string        `toml:"handler_timeout" json:"handler_timeout"` // e.g. "4s"

	handlerTimeout time.Duration
}

// HandlerTimeoutDuration returns the parsed handler_timeout.
func (s ServerConfig) HandlerTimeoutDuration() time.Duration {
	return s.handlerTimeout
}

// ZoneConfig selects where zone entries come from and how answers are built.
type ZoneConfig struct {
	File          string `toml:"file" json:"file"`
	Database      string `toml:"database" json:"database"` // SQLite path; takes precedence over File
	TTL           int    `toml:"ttl" json:"ttl" validate:"min=0,max=2147483647"`
	EchoQuestions bool   `toml:"echo_questions" json:"echo_questions"`
}

// UpstreamConfig contains upstream DNS server settings.
type UpstreamConfig struct {
	Servers    []string `toml:"servers" json:"servers" validate:"max=3,dive,required"`
	Timeout    string   `toml:"timeout" json:"timeout"`         // Wait for one upstream reply (e.g., "3s")
	MaxRetries int      `toml:"max_retries" json:"max_retries"` // Attempts per upstream on timeout
	PoolSize   int      `toml:"pool_size" json:"pool_size"`     // Idle sockets kept per upstream

	timeout time.Duration
}

// TimeoutDuration returns the parsed timeout.
func (u UpstreamConfig) TimeoutDuration() time.Duration {
	return u.timeout
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `toml:"level" json:"level" validate:"oneof=DEBUG INFO WARN WARNING ERROR"`
	Structured       bool              `toml:"structured" json:"structured"`
	StructuredFormat string            `toml:"structured_format" json:"structured_format" validate:"oneof=json keyvalue text"`
	IncludePID       bool              `toml:"include_pid" json:"include_pid"`
	ExtraFields      map[string]string `toml:"extra_fields" json:"extra_fields,omitempty"`
	File             string            `toml:"file" json:"file,omitempty"`
	MaxSizeMB        int               `toml:"max_size_mb" json:"max_size_mb" validate:"min=0"`
	MaxBackups       int               `toml:"max_backups" json:"max_backups" validate:"min=0"`
	MaxAgeDays       int               `toml:"max_age_days" json:"max_age_days" validate:"min=0"`
}

// RateLimitConfig controls rate limiting settings.
type RateLimitConfig struct {
	// CleanupSeconds is how often stale entries are cleaned up (default: 60)
	CleanupSeconds float64 `toml:"cleanup_seconds" json:"cleanup_seconds" validate:"min=0"`
	// MaxIPEntries is the maximum number of tracked IPs (default: 65536)
	MaxIPEntries int `toml:"max_ip_entries" json:"max_ip_entries" validate:"min=0"`
	// MaxPrefixEntries is the maximum number of tracked prefixes (default: 16384)
	MaxPrefixEntries int `toml:"max_prefix_entries" json:"max_prefix_entries" validate:"min=0"`
	// GlobalQPS is the server-wide queries per second limit (0 = disabled)
	GlobalQPS float64 `toml:"global_qps" json:"global_qps" validate:"min=0"`
	// GlobalBurst is the global burst size
	GlobalBurst int `toml:"global_burst" json:"global_burst" validate:"min=0"`
	// PrefixQPS is the per-prefix QPS limit (0 = disabled)
	PrefixQPS float64 `toml:"prefix_qps" json:"prefix_qps" validate:"min=0"`
	// PrefixBurst is the per-prefix burst size
	PrefixBurst int `toml:"prefix_burst" json:"prefix_burst" validate:"min=0"`
	// IPQPS is the per-IP QPS limit (0 = disabled)
	IPQPS float64 `toml:"ip_qps" json:"ip_qps" validate:"min=0"`
	// IPBurst is the per-IP burst size
	IPBurst int `toml:"ip_burst" json:"ip_burst" validate:"min=0"`
}

// AccessConfig restricts which clients are answered. An empty list allows everyone.
type AccessConfig struct {
	Allow []string `toml:"allow" json:"allow,omitempty" validate:"dive,cidr"`
}

// APIConfig contains management API settings.
//
// Note: APIKey is a secret and is never returned by API endpoints.
type APIConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Host    string `toml:"host" json:"host"`
	Port    int    `toml:"port" json:"port" validate:"min=0,max=65535"`
	APIKey  string `toml:"api_key" json:"-"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server" json:"server"`
	Zone      ZoneConfig      `toml:"zone" json:"zone"`
	Upstream  UpstreamConfig  `toml:"upstream" json:"upstream"`
	Logging   LoggingConfig   `toml:"logging" json:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" json:"rate_limit"`
	Access    AccessConfig    `toml:"access" json:"access"`
	API       APIConfig       `toml:"api" json:"api"`
}

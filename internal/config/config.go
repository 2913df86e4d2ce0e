// Package config provides configuration types, loading and validation for triedns.
//
// Configuration is read from a TOML file (path from --config or TRIEDNS_CONFIG),
// layered over Default() and then over a small set of environment overrides.
// Validate normalizes the result and checks it with struct tags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// EnvConfigPath names the environment variable consulted when no --config flag is given.
const EnvConfigPath = "TRIEDNS_CONFIG"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           7777,
			Sockets:        1,
			WorkersRaw:     "auto",
			HandlerTimeout: "4s",
		},
		Zone: ZoneConfig{
			TTL: 1024,
		},
		Upstream: UpstreamConfig{
			Timeout:    "3s",
			MaxRetries: 2,
		},
		Logging: LoggingConfig{
			Level:            "INFO",
			StructuredFormat: "json",
		},
		RateLimit: RateLimitConfig{
			CleanupSeconds:   60,
			MaxIPEntries:     65536,
			MaxPrefixEntries: 16384,
			GlobalQPS:        100000,
			GlobalBurst:      100000,
			PrefixQPS:        10000,
			PrefixBurst:      20000,
			IPQPS:            3000,
			IPBurst:          6000,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

// ResolveConfigPath picks the config file path: the flag if set, else TRIEDNS_CONFIG.
func ResolveConfigPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// Load reads the TOML file at path over the defaults, applies environment
// overrides and validates the result. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TRIEDNS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRIEDNS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRIEDNS_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("TRIEDNS_WORKERS"); v != "" {
		cfg.Server.WorkersRaw = v
	}
	if v := os.Getenv("TRIEDNS_UPSTREAM_SERVERS"); v != "" {
		cfg.Upstream.Servers = splitList(v)
	}
	if v := os.Getenv("TRIEDNS_ZONE_FILE"); v != "" {
		cfg.Zone.File = v
	}
	if v := os.Getenv("TRIEDNS_ZONE_DB"); v != "" {
		cfg.Zone.Database = v
	}
	if v := os.Getenv("TRIEDNS_API_ENABLED"); v != "" {
		cfg.API.Enabled = envBool(v, cfg.API.Enabled)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

var validate = validator.New()

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	// Limit to 3 upstream servers (strict-order failover)
	if len(cfg.Upstream.Servers) > 3 {
		cfg.Upstream.Servers = cfg.Upstream.Servers[:3]
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	if cfg.Server.Sockets == 0 {
		cfg.Server.Sockets = 1
	}
	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.API.Enabled && cfg.API.Port == 0 {
		return errors.New("api.port must be 1..65535")
	}

	workers, err := parseWorkers(cfg.Server.WorkersRaw)
	if err != nil {
		return err
	}
	cfg.Server.Workers = workers

	if cfg.Server.handlerTimeout, err = parseDuration("server.handler_timeout", cfg.Server.HandlerTimeout, 4*time.Second); err != nil {
		return err
	}
	if cfg.Upstream.timeout, err = parseDuration("upstream.timeout", cfg.Upstream.Timeout, 3*time.Second); err != nil {
		return err
	}
	return nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// parseWorkers converts the workers string to WorkerSetting.
func parseWorkers(raw string) (WorkerSetting, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "auto" {
		return WorkerSetting{Mode: WorkersAuto}, nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return WorkerSetting{Mode: WorkersFixed, Value: n}, nil
	}
	return WorkerSetting{}, fmt.Errorf("server.workers: %q is not a positive integer or \"auto\"", raw)
}

package models

import "github.com/jroosing/triedns/internal/config"

// APIConfigResponse is a redacted version of APIConfig (no api_key exposed).
type APIConfigResponse struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// ServerConfigResponse wraps ServerConfig with workers as string.
type ServerConfigResponse struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Sockets        int    `json:"sockets"`
	Workers        string `json:"workers"`
	MaxConcurrency int    `json:"max_concurrency"`
	HandlerTimeout string `json:"handler_timeout"`
}

// ConfigResponse is the API response for GET /config.
type ConfigResponse struct {
	Server    ServerConfigResponse   `json:"server"`
	Zone      config.ZoneConfig      `json:"zone"`
	Upstream  config.UpstreamConfig  `json:"upstream"`
	Logging   config.LoggingConfig   `json:"logging"`
	RateLimit config.RateLimitConfig `json:"rate_limit"`
	Access    config.AccessConfig    `json:"access"`
	API       APIConfigResponse      `json:"api"`
}

package goClient

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goClient APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Credential CredentialConfig
	Data       DataConfig
	Realtime   RealtimeConfig
	Storage    StorageConfig
	Diag       DiagConfig
	Metrics    MetricsConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig defines a public type used by goClient APIs.
//
// CredentialConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialConfig struct {
	// StorageKey is the durable-storage key the token is persisted under.
	StorageKey string
	// IdentityTTL bounds how long decoded claims are served from the
	// identity cache before the token is decoded again.
	IdentityTTL time.Duration
	// ExpiryLeeway treats tokens expiring within the window as already
	// expired so refresh happens before the server starts rejecting them.
	ExpiryLeeway time.Duration
}

/*
====================================
DATA CONFIG
====================================
*/

// DataConfig defines a public type used by goClient APIs.
//
// DataConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DataConfig struct {
	// DefaultTTL is how long FetchData results are served from cache.
	// Zero disables caching; concurrent calls are still deduplicated.
	DefaultTTL time.Duration
}

/*
====================================
REALTIME CONFIG
====================================
*/

// RealtimeConfig defines a public type used by goClient APIs.
//
// RealtimeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RealtimeConfig struct {
	// Endpoints maps logical endpoint names ("chat", "notifications") to
	// websocket URLs.
	Endpoints map[string]string

	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by goClient APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	RedisPrefix string
	// RedisTTL bounds how long persisted values live without being
	// rewritten. Zero keeps them until removed.
	RedisTTL time.Duration
}

// DiagConfig defines a public type used by goClient APIs.
//
// DiagConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DiagConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goClient APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Credential: CredentialConfig{
			StorageKey:   "auth_token",
			IdentityTTL:  5 * time.Minute,
			ExpiryLeeway: 30 * time.Second,
		},
		Data: DataConfig{
			DefaultTTL: 30 * time.Second,
		},
		Realtime: RealtimeConfig{
			BaseDelay:        1 * time.Second,
			MaxDelay:         30 * time.Second,
			MaxAttempts:      8,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     10 * time.Second,
			ReadLimit:        64 * 1024,
		},
		Storage: StorageConfig{
			RedisPrefix: "gc",
			RedisTTL:    0,
		},
		Diag: DiagConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Realtime.Endpoints != nil {
		out.Realtime.Endpoints = make(map[string]string, len(cfg.Realtime.Endpoints))
		for name, url := range cfg.Realtime.Endpoints {
			out.Realtime.Endpoints[name] = url
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Credential
	if c.Credential.StorageKey == "" {
		return errors.New("Credential StorageKey must not be empty")
	}
	if c.Credential.IdentityTTL <= 0 {
		return errors.New("Credential IdentityTTL must be > 0")
	}
	if c.Credential.ExpiryLeeway < 0 {
		return errors.New("Credential ExpiryLeeway must be >= 0")
	}

	// Data
	if c.Data.DefaultTTL < 0 {
		return errors.New("Data DefaultTTL must be >= 0")
	}

	// Realtime
	if c.Realtime.BaseDelay <= 0 {
		return errors.New("Realtime BaseDelay must be > 0")
	}
	if c.Realtime.MaxDelay < c.Realtime.BaseDelay {
		return errors.New("Realtime MaxDelay must be >= BaseDelay")
	}
	if c.Realtime.MaxAttempts <= 0 {
		return errors.New("Realtime MaxAttempts must be > 0")
	}
	if c.Realtime.HandshakeTimeout <= 0 {
		return errors.New("Realtime HandshakeTimeout must be > 0")
	}
	if c.Realtime.WriteTimeout <= 0 {
		return errors.New("Realtime WriteTimeout must be > 0")
	}
	if c.Realtime.ReadLimit <= 0 {
		return errors.New("Realtime ReadLimit must be > 0")
	}
	for name, url := range c.Realtime.Endpoints {
		if name == "" {
			return errors.New("Realtime endpoint name must not be empty")
		}
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			return errors.New("Realtime endpoint URL must use ws:// or wss://")
		}
	}

	// Storage
	if c.Storage.RedisTTL < 0 {
		return errors.New("Storage RedisTTL must be >= 0")
	}

	// Diag
	if c.Diag.Enabled {
		if c.Diag.BufferSize <= 0 {
			return errors.New("Diag BufferSize must be > 0 when diagnostics are enabled")
		}
	}

	return nil
}

package goClient

import (
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/Veltrix07/goClient/dedup"
	internaldiag "github.com/Veltrix07/goClient/internal/diag"
	"github.com/Veltrix07/goClient/realtime"
	"github.com/Veltrix07/goClient/storage"
)

// Builder defines a public type used by goClient APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	storage   Storage
	redis     redis.UniversalClient
	refresh   RefreshFunc
	transport realtime.Transport
	diagSink  DiagSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage describes the withstorage operation and its observable behavior.
//
// WithStorage does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStorage(s Storage) *Builder {
	b.storage = s
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenRefresh describes the withtokenrefresh operation and its observable behavior.
//
// WithTokenRefresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenRefresh(fn RefreshFunc) *Builder {
	b.refresh = fn
	return b
}

// WithEndpoint registers a logical realtime endpoint by name. It may be
// called multiple times; later registrations for the same name win.
func (b *Builder) WithEndpoint(name, url string) *Builder {
	if b.config.Realtime.Endpoints == nil {
		b.config.Realtime.Endpoints = make(map[string]string)
	}
	b.config.Realtime.Endpoints[name] = url
	return b
}

// WithTransport describes the withtransport operation and its observable behavior.
//
// WithTransport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTransport(t realtime.Transport) *Builder {
	b.transport = t
	return b
}

// WithDiagSink describes the withdiagsink operation and its observable behavior.
//
// WithDiagSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDiagSink(sink DiagSink) *Builder {
	b.diagSink = sink
	b.config.Diag.Enabled = sink != nil
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.storage
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("storage backend required (WithStorage or WithRedis)")
		}
		store = storage.NewRedisStore(b.redis, cfg.Storage.RedisPrefix, cfg.Storage.RedisTTL)
	}

	client := &Client{
		config:     cfg,
		storage:    store,
		refresh:    b.refresh,
		metrics:    NewMetrics(cfg.Metrics),
		tokenCalls: dedup.NewGroup[string](),
		dataCalls:  dedup.NewGroup[json.RawMessage](),
		conns:      make(map[string]*realtime.Conn, len(cfg.Realtime.Endpoints)),
	}
	client.diag = internaldiag.NewDispatcher(internaldiag.Config{
		Enabled:    cfg.Diag.Enabled,
		BufferSize: cfg.Diag.BufferSize,
		DropIfFull: cfg.Diag.DropIfFull,
	}, b.diagSink)

	transport := b.transport
	if transport == nil {
		transport = &realtime.Dialer{
			HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
			WriteTimeout:     cfg.Realtime.WriteTimeout,
			ReadLimit:        cfg.Realtime.ReadLimit,
		}
	}

	for name, url := range cfg.Realtime.Endpoints {
		conn, err := realtime.NewConn(realtime.Config{
			Endpoint:    name,
			URL:         url,
			BaseDelay:   cfg.Realtime.BaseDelay,
			MaxDelay:    cfg.Realtime.MaxDelay,
			MaxAttempts: cfg.Realtime.MaxAttempts,
		}, transport, client, client.diag, client.metrics)
		if err != nil {
			return nil, err
		}
		client.conns[name] = conn
	}

	b.built = true

	return client, nil
}

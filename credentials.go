package goClient

import (
	"context"
	"errors"
	"fmt"
	"time"

	internaldiag "github.com/Veltrix07/goClient/internal/diag"
	"github.com/Veltrix07/goClient/jwt"
	"github.com/Veltrix07/goClient/storage"
)

// Dedup keys for the credential namespace. All concurrent storage reads
// collapse onto tokenReadKey; all concurrent refreshes onto tokenRefreshKey.
const (
	tokenReadKey    = "token:read"
	tokenRefreshKey = "token:refresh"
)

// Token describes the token operation and its observable behavior.
//
// Token serves from memory once the credential state is loaded; the first
// read after startup goes to storage, with concurrent callers collapsed onto
// a single storage operation.
// Token may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}

	c.creds.mu.RLock()
	if c.creds.loaded {
		token := c.creds.token
		c.creds.mu.RUnlock()
		c.metrics.Inc(MetricTokenCacheHit)
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	}
	c.creds.mu.RUnlock()

	c.metrics.Inc(MetricTokenCacheMiss)
	token, err := c.tokenCalls.Do(ctx, tokenReadKey, 0, c.loadToken)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// loadToken reads the persisted token and makes the memory tier
// authoritative. A missing key is a valid outcome (empty token, loaded); a
// failing backend leaves the memory tier unloaded so the next read retries.
func (c *Client) loadToken(ctx context.Context) (string, error) {
	c.metrics.Inc(MetricStorageRead)
	value, err := c.storage.Get(ctx, c.config.Credential.StorageKey)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		value = ""
	default:
		c.metrics.Inc(MetricStorageReadFailure)
		c.emitDiag(internaldiag.EventStorageRead, false, err.Error())
		return "", fmt.Errorf("%w: %v", ErrStorageRead, err)
	}

	c.creds.mu.Lock()
	c.creds.token = value
	c.creds.loaded = true
	c.creds.hasIdentity = false
	c.creds.mu.Unlock()

	return value, nil
}

// SetToken describes the settoken operation and its observable behavior.
//
// Storage is written first; the memory tier is only updated after the write
// succeeds, so a failed write never leaves memory and storage disagreeing.
// SetToken may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) SetToken(ctx context.Context, token string) error {
	if c == nil {
		return ErrClientNotReady
	}
	if token == "" {
		return errors.New("token must not be empty")
	}

	c.metrics.Inc(MetricStorageWrite)
	if err := c.storage.Set(ctx, c.config.Credential.StorageKey, token); err != nil {
		c.metrics.Inc(MetricStorageWriteFailure)
		c.emitDiag(internaldiag.EventStorageWrite, false, err.Error())
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	c.creds.mu.Lock()
	c.creds.token = token
	c.creds.loaded = true
	c.creds.hasIdentity = false
	c.creds.mu.Unlock()

	return nil
}

// RemoveToken describes the removetoken operation and its observable behavior.
//
// The memory tier is cleared unconditionally, so a failing storage backend
// can never resurrect a credential the caller asked to drop. Removing an
// absent token is a no-op.
// RemoveToken may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) RemoveToken(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	c.creds.mu.Lock()
	c.creds.token = ""
	c.creds.loaded = true
	c.creds.hasIdentity = false
	c.creds.mu.Unlock()

	c.metrics.Inc(MetricStorageWrite)
	if err := c.storage.Remove(ctx, c.config.Credential.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.metrics.Inc(MetricStorageWriteFailure)
		c.emitDiag(internaldiag.EventStorageWrite, false, err.Error())
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// UserID describes the userid operation and its observable behavior.
//
// UserID returns 0 with [ErrNoToken] when no credential is stored, and 0
// with no error when the stored token carries no decodable identity.
func (c *Client) UserID(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, ErrClientNotReady
	}

	snap, err := c.identity(ctx)
	if err != nil {
		return 0, err
	}
	return snap.userID, nil
}

// IsAuthenticated reports whether a non-expired credential is held in
// memory. It answers from the in-memory tier only and never touches
// storage: before the first Token read makes memory authoritative, the
// answer is false. Any failure reads as unauthenticated.
func (c *Client) IsAuthenticated() bool {
	if c == nil {
		return false
	}

	now := c.clock()

	c.creds.mu.RLock()
	loaded := c.creds.loaded
	token := c.creds.token
	snap := c.creds.identity
	hasIdentity := c.creds.hasIdentity && now.Sub(c.creds.identityAt) < c.config.Credential.IdentityTTL
	c.creds.mu.RUnlock()

	if !loaded || token == "" {
		return false
	}

	if !hasIdentity {
		// Decoding is pure CPU work on the in-memory token.
		snap = decodeIdentity(token)
		if !snap.decodable {
			c.metrics.Inc(MetricTokenDecodeFailure)
		}
		c.creds.mu.Lock()
		if c.creds.loaded && c.creds.token == token {
			c.creds.identity = snap
			c.creds.identityAt = now
			c.creds.hasIdentity = true
		}
		c.creds.mu.Unlock()
	}

	return !snap.expired(now, c.config.Credential.ExpiryLeeway)
}

// IsTokenExpired describes the istokenexpired operation and its observable behavior.
//
// A missing, unreadable, or undecodable token reads as expired. Tokens
// within ExpiryLeeway of their expiry also read as expired so callers
// refresh before the server starts rejecting requests.
func (c *Client) IsTokenExpired(ctx context.Context) bool {
	if c == nil {
		return true
	}
	snap, err := c.identity(ctx)
	if err != nil {
		return true
	}
	return snap.expired(c.clock(), c.config.Credential.ExpiryLeeway)
}

// FreshToken describes the freshtoken operation and its observable behavior.
//
// When the stored token is still usable it is returned as-is. When it is
// expired and a refresh function is configured, concurrent callers collapse
// onto a single refresh; the result is persisted before being returned.
// FreshToken may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) FreshToken(ctx context.Context) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}

	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	snap, err := c.identity(ctx)
	if err != nil {
		return "", err
	}
	if !snap.expired(c.clock(), c.config.Credential.ExpiryLeeway) {
		return token, nil
	}

	if c.refresh == nil {
		return "", ErrRefreshUnavailable
	}

	return c.tokenCalls.Do(ctx, tokenRefreshKey, 0, func(ctx context.Context) (string, error) {
		c.metrics.Inc(MetricTokenRefresh)
		newToken, err := c.refresh(ctx)
		if err != nil {
			c.emitDiag(internaldiag.EventTokenRefresh, false, err.Error())
			return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
		if newToken == "" {
			c.emitDiag(internaldiag.EventTokenRefresh, false, "refresh returned empty token")
			return "", ErrRefreshFailed
		}
		if err := c.SetToken(ctx, newToken); err != nil {
			return "", err
		}
		c.emitDiag(internaldiag.EventTokenRefresh, true, "")
		return newToken, nil
	})
}

// identity returns the decoded view of the stored token, cached for
// Credential.IdentityTTL.
func (c *Client) identity(ctx context.Context) (identitySnapshot, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return identitySnapshot{}, err
	}

	now := c.clock()
	c.creds.mu.RLock()
	if c.creds.hasIdentity && now.Sub(c.creds.identityAt) < c.config.Credential.IdentityTTL {
		snap := c.creds.identity
		c.creds.mu.RUnlock()
		return snap, nil
	}
	c.creds.mu.RUnlock()

	snap := decodeIdentity(token)
	if !snap.decodable {
		c.metrics.Inc(MetricTokenDecodeFailure)
	}

	c.creds.mu.Lock()
	// The token may have been replaced since it was read; only publish the
	// snapshot when it still describes the current token.
	if c.creds.loaded && c.creds.token == token {
		c.creds.identity = snap
		c.creds.identityAt = now
		c.creds.hasIdentity = true
	}
	c.creds.mu.Unlock()

	return snap, nil
}

func decodeIdentity(token string) identitySnapshot {
	claims, err := jwt.Decode(token)
	if err != nil || claims == nil {
		return identitySnapshot{}
	}

	snap := identitySnapshot{
		userID:    claims.UserID(),
		decodable: true,
	}
	if claims.ExpiresAt != nil {
		snap.expiresAt = claims.ExpiresAt.Time
		snap.hasExpiry = true
	}
	return snap
}

// expired treats undecodable tokens and tokens without an expiry claim as
// expired. The caller is never told a token is good when the client cannot
// prove it.
func (s identitySnapshot) expired(now time.Time, leeway time.Duration) bool {
	if !s.decodable || !s.hasExpiry {
		return true
	}
	return !now.Before(s.expiresAt.Add(-leeway))
}

package goClient

import "errors"

var (
	// ErrClientNotReady is an exported constant or variable used by the client core.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrClientClosed is an exported constant or variable used by the client core.
	ErrClientClosed = errors.New("client closed")
	// ErrNoToken is an exported constant or variable used by the client core.
	ErrNoToken = errors.New("no token stored")
	// ErrStorageRead is an exported constant or variable used by the client core.
	ErrStorageRead = errors.New("credential storage read failed")
	// ErrStorageWrite is an exported constant or variable used by the client core.
	ErrStorageWrite = errors.New("credential storage write failed")
	// ErrRefreshUnavailable is an exported constant or variable used by the client core.
	ErrRefreshUnavailable = errors.New("token refresh unavailable")
	// ErrRefreshFailed is an exported constant or variable used by the client core.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrUnknownEndpoint is an exported constant or variable used by the client core.
	ErrUnknownEndpoint = errors.New("unknown realtime endpoint")
)

package goClient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/Veltrix07/goClient/storage"
)

// mockStorage counts operations so tests can assert how many calls actually
// reached the backend.
type mockStorage struct {
	mu     sync.Mutex
	values map[string]string

	reads   int
	writes  int
	removes int

	getErr    error
	setErr    error
	removeErr error

	// gate, when non-nil, blocks Get until closed.
	gate chan struct{}
}

func newMockStorage() *mockStorage {
	return &mockStorage{values: make(map[string]string)}
}

func (m *mockStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (m *mockStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.values, key)
	return nil
}

func (m *mockStorage) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func signedTestToken(t *testing.T, uid int64, expiresAt time.Time) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"uid": uid,
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func newTestClient(t *testing.T, ms *mockStorage, refresh RefreshFunc) *Client {
	t.Helper()
	client, err := New().
		WithStorage(ms).
		WithTokenRefresh(refresh).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("expected client build to succeed, got %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTokenRoundTripServesFromMemory(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	token := signedTestToken(t, 42, time.Now().Add(time.Hour))
	if err := client.SetToken(ctx, token); err != nil {
		t.Fatalf("expected set token to succeed, got %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := client.Token(ctx)
		if err != nil {
			t.Fatalf("expected token read %d to succeed, got %v", i, err)
		}
		if got != token {
			t.Fatalf("expected stored token back, got %q", got)
		}
	}

	if got := ms.readCount(); got != 0 {
		t.Fatalf("expected zero storage reads after set, got %d", got)
	}
}

func TestConcurrentIdentityReadsCollapseToOneStorageRead(t *testing.T) {
	ms := newMockStorage()
	ms.values["auth_token"] = signedTestToken(t, 7, time.Now().Add(time.Hour))
	ms.gate = make(chan struct{})
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	const callers = 3
	results := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = client.UserID(ctx)
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	close(ms.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: expected user id, got %v", i, errs[i])
		}
		if results[i] != 7 {
			t.Fatalf("caller %d: expected user id 7, got %d", i, results[i])
		}
	}
	if got := ms.readCount(); got != 1 {
		t.Fatalf("expected exactly 1 storage read for %d concurrent callers, got %d", callers, got)
	}
}

func TestTokenMissingReturnsErrNoToken(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if _, err := client.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	// The absence itself is now cached; no second storage round-trip.
	if _, err := client.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken on repeat, got %v", err)
	}
	if got := ms.readCount(); got != 1 {
		t.Fatalf("expected 1 storage read, got %d", got)
	}
}

func TestTokenStorageFailureIsRetriedOnNextRead(t *testing.T) {
	ms := newMockStorage()
	ms.getErr = errors.New("backend down")
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if _, err := client.Token(ctx); !errors.Is(err, ErrStorageRead) {
		t.Fatalf("expected ErrStorageRead, got %v", err)
	}

	ms.mu.Lock()
	ms.getErr = nil
	ms.values["auth_token"] = "tok-recovered"
	ms.mu.Unlock()

	got, err := client.Token(ctx)
	if err != nil {
		t.Fatalf("expected recovery read to succeed, got %v", err)
	}
	if got != "tok-recovered" {
		t.Fatalf("expected recovered token, got %q", got)
	}
}

func TestSetTokenStorageFailureLeavesMemoryUnchanged(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, "tok-a"); err != nil {
		t.Fatalf("expected initial set to succeed, got %v", err)
	}

	ms.mu.Lock()
	ms.setErr = errors.New("disk full")
	ms.mu.Unlock()

	if err := client.SetToken(ctx, "tok-b"); !errors.Is(err, ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}

	got, err := client.Token(ctx)
	if err != nil {
		t.Fatalf("expected token read to succeed, got %v", err)
	}
	if got != "tok-a" {
		t.Fatalf("expected memory to keep the old token, got %q", got)
	}
}

func TestRemoveTokenIsIdempotent(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	if err := client.RemoveToken(ctx); err != nil {
		t.Fatalf("expected first remove to succeed, got %v", err)
	}
	if err := client.RemoveToken(ctx); err != nil {
		t.Fatalf("expected second remove to succeed, got %v", err)
	}

	if _, err := client.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after removal, got %v", err)
	}
}

func TestRemoveTokenClearsMemoryDespiteStorageFailure(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	ms.mu.Lock()
	ms.removeErr = errors.New("backend down")
	ms.mu.Unlock()

	if err := client.RemoveToken(ctx); !errors.Is(err, ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if _, err := client.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected memory cleared despite storage failure, got %v", err)
	}
}

func TestUndecodableTokenFailsClosed(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, "not-a-jwt"); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	uid, err := client.UserID(ctx)
	if err != nil {
		t.Fatalf("expected user id lookup to succeed, got %v", err)
	}
	if uid != 0 {
		t.Fatalf("expected user id 0 for undecodable token, got %d", uid)
	}
	if client.IsAuthenticated() {
		t.Fatal("expected undecodable token to read as unauthenticated")
	}
	if !client.IsTokenExpired(ctx) {
		t.Fatal("expected undecodable token to read as expired")
	}
	if got := client.metrics.Value(MetricTokenDecodeFailure); got == 0 {
		t.Fatal("expected a decode failure to be recorded")
	}
}

func TestIsAuthenticatedWithValidToken(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, signedTestToken(t, 99, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	if !client.IsAuthenticated() {
		t.Fatal("expected valid token to read as authenticated")
	}
	if client.IsTokenExpired(ctx) {
		t.Fatal("expected valid token to read as not expired")
	}
	uid, err := client.UserID(ctx)
	if err != nil {
		t.Fatalf("expected user id lookup to succeed, got %v", err)
	}
	if uid != 99 {
		t.Fatalf("expected user id 99, got %d", uid)
	}
}

func TestIsAuthenticatedAnswersFromMemoryOnly(t *testing.T) {
	ms := newMockStorage()
	ms.values["auth_token"] = signedTestToken(t, 7, time.Now().Add(time.Hour))
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	// A valid token sits in storage, but memory has not been loaded yet:
	// the answer is false and storage must not be consulted.
	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated before the credential state is loaded")
	}
	if got := ms.readCount(); got != 0 {
		t.Fatalf("expected zero storage reads, got %d", got)
	}

	if _, err := client.Token(ctx); err != nil {
		t.Fatalf("expected token read to succeed, got %v", err)
	}
	if !client.IsAuthenticated() {
		t.Fatal("expected authenticated after the credential state is loaded")
	}
	if got := ms.readCount(); got != 1 {
		t.Fatalf("expected exactly one storage read, got %d", got)
	}
}

func TestSetTokenReplacesCachedIdentity(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, signedTestToken(t, 1, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}
	if uid, _ := client.UserID(ctx); uid != 1 {
		t.Fatalf("expected user id 1, got %d", uid)
	}

	if err := client.SetToken(ctx, signedTestToken(t, 2, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("expected second set to succeed, got %v", err)
	}
	if uid, _ := client.UserID(ctx); uid != 2 {
		t.Fatalf("expected identity to follow the new token, got user id %d", uid)
	}
}

func TestTokenWithinLeewayReadsAsExpired(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	// Default leeway is 30s; a token expiring in 10s should already count
	// as expired so refresh happens ahead of server rejections.
	if err := client.SetToken(ctx, signedTestToken(t, 5, time.Now().Add(10*time.Second))); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	if !client.IsTokenExpired(ctx) {
		t.Fatal("expected token inside the leeway window to read as expired")
	}
}

func TestFreshTokenReturnsCurrentWhenNotExpired(t *testing.T) {
	ms := newMockStorage()
	var refreshCalls atomic.Int32
	client := newTestClient(t, ms, func(context.Context) (string, error) {
		refreshCalls.Add(1)
		return "tok-new", nil
	})
	ctx := context.Background()

	token := signedTestToken(t, 3, time.Now().Add(time.Hour))
	if err := client.SetToken(ctx, token); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	got, err := client.FreshToken(ctx)
	if err != nil {
		t.Fatalf("expected fresh token to succeed, got %v", err)
	}
	if got != token {
		t.Fatalf("expected current token back, got %q", got)
	}
	if refreshCalls.Load() != 0 {
		t.Fatalf("expected no refresh for a fresh token, got %d calls", refreshCalls.Load())
	}
}

func TestFreshTokenRefreshesExpiredToken(t *testing.T) {
	ms := newMockStorage()
	newToken := signedTestToken(t, 3, time.Now().Add(time.Hour))
	var refreshCalls atomic.Int32
	client := newTestClient(t, ms, func(context.Context) (string, error) {
		refreshCalls.Add(1)
		return newToken, nil
	})
	ctx := context.Background()

	if err := client.SetToken(ctx, signedTestToken(t, 3, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	got, err := client.FreshToken(ctx)
	if err != nil {
		t.Fatalf("expected refresh to succeed, got %v", err)
	}
	if got != newToken {
		t.Fatalf("expected refreshed token, got %q", got)
	}
	if refreshCalls.Load() != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", refreshCalls.Load())
	}

	ms.mu.Lock()
	persisted := ms.values["auth_token"]
	ms.mu.Unlock()
	if persisted != newToken {
		t.Fatalf("expected refreshed token persisted, got %q", persisted)
	}
}

func TestConcurrentFreshTokenCollapsesToOneRefresh(t *testing.T) {
	ms := newMockStorage()
	newToken := signedTestToken(t, 3, time.Now().Add(time.Hour))
	var refreshCalls atomic.Int32
	client := newTestClient(t, ms, func(context.Context) (string, error) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return newToken, nil
	})
	ctx := context.Background()

	if err := client.SetToken(ctx, signedTestToken(t, 3, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	const callers = 4
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = client.FreshToken(ctx)
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: expected refresh to succeed, got %v", i, err)
		}
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Fatalf("expected concurrent callers to share 1 refresh, got %d", got)
	}
}

func TestFreshTokenWithoutRefreshFunc(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, nil)
	ctx := context.Background()

	if err := client.SetToken(ctx, signedTestToken(t, 3, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}

	if _, err := client.FreshToken(ctx); !errors.Is(err, ErrRefreshUnavailable) {
		t.Fatalf("expected ErrRefreshUnavailable, got %v", err)
	}
}

func TestFreshTokenWithoutStoredToken(t *testing.T) {
	ms := newMockStorage()
	client := newTestClient(t, ms, func(context.Context) (string, error) {
		t.Fatal("refresh must not run without a stored credential")
		return "", nil
	})

	if _, err := client.FreshToken(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

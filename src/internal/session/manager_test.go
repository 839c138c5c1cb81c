package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"stylehub-admin-svc/src/internal/session/backendfakes"
	"stylehub-admin-svc/src/internal/session/kvfakes"
)

var testStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordedEvent struct {
	principal string
	action    string
	reason    string
	success   bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) Record(_ context.Context, principal, action, reason string, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{principal, action, reason, success})
}

func (f *fakeRecorder) last(t *testing.T) recordedEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

func testSettings() config.SessionSettings {
	return config.SessionSettings{
		ShortDurationHours:       8,
		LongDurationDays:         30,
		InactivityTimeoutMinutes: 120,
		RefreshThresholdMinutes:  5,
		WarningThresholdMinutes:  5,
		ValidityCheckSeconds:     60,
		RefreshIntervalMinutes:   5,
		ActivityFlushSeconds:     5,
		KeyPrefix:                "admin",
	}
}

func testAllowlist() *Allowlist {
	return NewAllowlist([]string{"ops@stylehub.example", "merchandising@stylehub.example"})
}

func newTestManager(t *testing.T) (*Manager, *kvfakes.FakeKV, *backendfakes.FakeAuthBackend, *fakeClock, *fakeRecorder) {
	t.Helper()
	kv := kvfakes.NewFakeKV()
	backend := backendfakes.NewFakeAuthBackend()
	clock := newFakeClock(testStart)
	recorder := &fakeRecorder{}
	m := NewManager(kv, backend, testAllowlist(), testSettings(),
		WithNowTime(clock.Now),
		WithMonitorIntervals(time.Hour, time.Hour),
		WithAuditRecorder(recorder),
	)
	t.Cleanup(m.Shutdown)
	return m, kv, backend, clock, recorder
}

func TestManager_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks non-allowlisted email before any backend call", func(t *testing.T) {
		m, kv, backend, _, recorder := newTestManager(t)

		result := m.SignIn(ctx, "intruder@nowhere.com", "whatever", false)

		require.False(t, result.Success)
		require.Equal(t, msgNotAuthorized, result.Error)
		require.Zero(t, backend.AuthenticateCalls)
		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Zero(t, kv.Len())

		event := recorder.last(t)
		require.Equal(t, models.ActionSignInDenied, event.action)
		require.Equal(t, "allow-list", event.reason)
		require.False(t, event.success)
	})

	t.Run("success persists the session and starts tracking", func(t *testing.T) {
		m, kv, backend, _, recorder := newTestManager(t)

		result := m.SignIn(ctx, "ops@stylehub.example", "secret", false)

		require.True(t, result.Success)
		require.Empty(t, result.Error)
		require.Equal(t, StateAuthenticated, m.CurrentState())
		require.Equal(t, "ops@stylehub.example", m.Principal())
		require.Equal(t, 4, kv.Len())
		require.True(t, m.MatchesCredential("cred-1"))
		require.Equal(t, 1, backend.MetadataCalls)

		expiry := m.SessionExpiry()
		require.NotNil(t, expiry)
		require.Equal(t, testStart.Add(8*time.Hour), *expiry)

		event := recorder.last(t)
		require.Equal(t, models.ActionSignIn, event.action)
		require.True(t, event.success)
	})

	t.Run("remembered session gets the long duration", func(t *testing.T) {
		m, _, _, _, _ := newTestManager(t)

		result := m.SignIn(ctx, "ops@stylehub.example", "secret", true)

		require.True(t, result.Success)
		expiry := m.SessionExpiry()
		require.NotNil(t, expiry)
		require.Equal(t, testStart.Add(30*24*time.Hour), *expiry)
	})

	t.Run("backend rejection is a failed result, not a panic", func(t *testing.T) {
		m, kv, backend, _, recorder := newTestManager(t)
		backend.AuthenticateFn = func(string, string) (*models.BackendSession, error) {
			return nil, models.ErrCredentialRejected
		}

		result := m.SignIn(ctx, "ops@stylehub.example", "wrong", false)

		require.False(t, result.Success)
		require.NotEmpty(t, result.Error)
		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Zero(t, kv.Len())
		require.Equal(t, "backend", recorder.last(t).reason)
	})

	t.Run("post-auth allow-list miss revokes the fresh credential", func(t *testing.T) {
		m, kv, backend, _, recorder := newTestManager(t)
		backend.AuthenticateFn = func(string, string) (*models.BackendSession, error) {
			return &models.BackendSession{Credential: "drifted-cred", Principal: "former-admin@stylehub.example"}, nil
		}

		result := m.SignIn(ctx, "ops@stylehub.example", "secret", false)

		require.False(t, result.Success)
		require.Equal(t, msgNotAuthorized, result.Error)
		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Zero(t, kv.Len())
		require.Equal(t, []string{"drifted-cred"}, backend.RevokedCredentials)
		require.Equal(t, "allow-list-post-auth", recorder.last(t).reason)
	})

	t.Run("metadata failure does not affect the outcome", func(t *testing.T) {
		m, _, backend, _, _ := newTestManager(t)
		backend.MetadataErr = models.ErrBackendUnavailable

		result := m.SignIn(ctx, "ops@stylehub.example", "secret", false)

		require.True(t, result.Success)
		require.Equal(t, StateAuthenticated, m.CurrentState())
	})

	t.Run("store failure rolls back to anonymous", func(t *testing.T) {
		m, kv, _, _, _ := newTestManager(t)
		kv.SetErr = models.ErrRedisSet

		result := m.SignIn(ctx, "ops@stylehub.example", "secret", false)

		require.False(t, result.Success)
		require.Equal(t, msgUnexpectedError, result.Error)
		require.Equal(t, StateAnonymous, m.CurrentState())
	})
}

func TestManager_SignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("clears state, revokes once, idempotent", func(t *testing.T) {
		m, kv, backend, _, recorder := newTestManager(t)
		require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

		m.SignOut(ctx)
		m.SignOut(ctx)

		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Zero(t, kv.Len())
		require.Equal(t, 1, backend.RevokeCalls)
		require.Equal(t, []string{"cred-1"}, backend.RevokedCredentials)
		require.Nil(t, m.SessionExpiry())
		require.False(t, m.Warning().IsOpen)
		require.Equal(t, models.ActionSignOut, recorder.last(t).action)
	})

	t.Run("backend revoke failure still leaves local state clean", func(t *testing.T) {
		m, kv, backend, _, _ := newTestManager(t)
		backend.RevokeErr = models.ErrBackendUnavailable
		require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

		m.SignOut(ctx)

		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Zero(t, kv.Len())
	})

	t.Run("sign-out while anonymous is a no-op", func(t *testing.T) {
		m, _, backend, _, _ := newTestManager(t)

		m.SignOut(ctx)

		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Zero(t, backend.RevokeCalls)
	})
}

func TestManager_InactivityForcesSignOut(t *testing.T) {
	ctx := context.Background()
	m, kv, backend, clock, recorder := newTestManager(t)
	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

	clock.Advance(2*time.Hour + time.Minute)

	require.False(t, m.EnsureValid(ctx))
	require.Equal(t, StateAnonymous, m.CurrentState())
	require.Zero(t, kv.Len())
	require.Equal(t, 1, backend.RevokeCalls)

	event := recorder.last(t)
	require.Equal(t, models.ActionForcedSignOut, event.action)
	require.Equal(t, "inactive", event.reason)
}

func TestManager_TouchKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	m, _, _, clock, _ := newTestManager(t)
	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

	clock.Advance(time.Hour + 59*time.Minute)
	m.Touch(ctx)
	clock.Advance(time.Hour + 59*time.Minute)

	require.True(t, m.EnsureValid(ctx))
	require.Equal(t, StateAuthenticated, m.CurrentState())
}

func TestManager_WarningThenRefresh(t *testing.T) {
	ctx := context.Background()
	m, _, backend, clock, recorder := newTestManager(t)
	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

	// Four minutes before the eight hour expiry, with recent activity.
	clock.Advance(7*time.Hour + 56*time.Minute)
	m.Touch(ctx)

	require.True(t, m.EnsureValid(ctx))
	warning := m.Warning()
	require.True(t, warning.IsOpen)
	require.Equal(t, 240, warning.TimeLeftSeconds)
	require.Equal(t, "4:00", warning.Countdown)

	require.True(t, m.RefreshSession(ctx))
	require.Equal(t, 1, backend.RefreshCalls)
	require.True(t, m.MatchesCredential("refreshed-1"))
	require.False(t, m.Warning().IsOpen)

	expiry := m.SessionExpiry()
	require.NotNil(t, expiry)
	require.Equal(t, clock.Now().Add(8*time.Hour), *expiry)
	require.Equal(t, models.ActionSessionRefresh, recorder.last(t).action)
}

func TestManager_RefreshFarFromExpiryIsNoop(t *testing.T) {
	ctx := context.Background()
	m, _, backend, _, _ := newTestManager(t)
	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)
	before := *m.SessionExpiry()

	require.True(t, m.RefreshSession(ctx))

	require.Zero(t, backend.RefreshCalls)
	require.Equal(t, before, *m.SessionExpiry())
}

func TestManager_RefreshFallsBackToLocalExtension(t *testing.T) {
	ctx := context.Background()
	m, _, backend, clock, recorder := newTestManager(t)
	backend.RefreshFn = func(string) (*models.BackendSession, error) {
		return nil, models.ErrBackendUnavailable
	}
	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

	clock.Advance(7*time.Hour + 56*time.Minute)
	m.Touch(ctx)

	require.True(t, m.RefreshSession(ctx))
	require.True(t, m.MatchesCredential("cred-1"))

	expiry := m.SessionExpiry()
	require.NotNil(t, expiry)
	require.Equal(t, clock.Now().Add(8*time.Hour), *expiry)

	event := recorder.last(t)
	require.Equal(t, models.ActionRefreshFallback, event.action)
	require.Equal(t, "backend-unavailable", event.reason)
}

func TestManager_ConcurrentRefreshHitsBackendOnce(t *testing.T) {
	ctx := context.Background()
	m, _, backend, clock, _ := newTestManager(t)
	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)

	clock.Advance(7*time.Hour + 56*time.Minute)
	m.Touch(ctx)

	outcomes := make([]bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = m.RefreshSession(ctx)
		}(i)
	}
	wg.Wait()

	require.Equal(t, []bool{true, true}, outcomes)
	require.Equal(t, 1, backend.RefreshCalls)
}

func TestManager_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("from the persisted store", func(t *testing.T) {
		m1, kv, _, clock, _ := newTestManager(t)
		require.True(t, m1.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)
		m1.Shutdown()

		clock.Advance(time.Hour)

		recorder := &fakeRecorder{}
		m2 := NewManager(kv, backendfakes.NewFakeAuthBackend(), testAllowlist(), testSettings(),
			WithNowTime(clock.Now),
			WithMonitorIntervals(time.Hour, time.Hour),
			WithAuditRecorder(recorder),
		)
		t.Cleanup(m2.Shutdown)

		require.True(t, m2.Restore(ctx))
		require.Equal(t, StateAuthenticated, m2.CurrentState())
		require.Equal(t, "ops@stylehub.example", m2.Principal())
		require.True(t, m2.MatchesCredential("cred-1"))
		require.Equal(t, models.ActionSessionRestored, recorder.last(t).action)
	})

	t.Run("from a live backend session with an empty store", func(t *testing.T) {
		m, kv, backend, _, _ := newTestManager(t)
		backend.CurrentFn = func() (*models.BackendSession, error) {
			return &models.BackendSession{Credential: "srv-1", Principal: "merchandising@stylehub.example"}, nil
		}

		require.True(t, m.Restore(ctx))
		require.Equal(t, StateAuthenticated, m.CurrentState())
		require.Equal(t, "merchandising@stylehub.example", m.Principal())
		require.True(t, m.MatchesCredential("srv-1"))
		require.Equal(t, 4, kv.Len())
	})

	t.Run("revokes a non-allowlisted backend session", func(t *testing.T) {
		m, _, backend, _, _ := newTestManager(t)
		backend.CurrentFn = func() (*models.BackendSession, error) {
			return &models.BackendSession{Credential: "srv-2", Principal: "former-admin@stylehub.example"}, nil
		}

		require.False(t, m.Restore(ctx))
		require.Equal(t, StateAnonymous, m.CurrentState())
		require.Equal(t, []string{"srv-2"}, backend.RevokedCredentials)
	})

	t.Run("clears an expired persisted record", func(t *testing.T) {
		m1, kv, _, clock, _ := newTestManager(t)
		require.True(t, m1.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)
		m1.Shutdown()

		clock.Advance(9 * time.Hour)

		m2 := NewManager(kv, backendfakes.NewFakeAuthBackend(), testAllowlist(), testSettings(),
			WithNowTime(clock.Now),
			WithMonitorIntervals(time.Hour, time.Hour),
		)
		t.Cleanup(m2.Shutdown)

		require.False(t, m2.Restore(ctx))
		require.Equal(t, StateAnonymous, m2.CurrentState())
		require.Zero(t, kv.Len())
	})

	t.Run("nothing to restore", func(t *testing.T) {
		m, _, _, _, _ := newTestManager(t)

		require.False(t, m.Restore(ctx))
		require.Equal(t, StateAnonymous, m.CurrentState())
	})
}

func TestManager_MonitorSignsOutExpiredSession(t *testing.T) {
	ctx := context.Background()
	kv := kvfakes.NewFakeKV()
	backend := backendfakes.NewFakeAuthBackend()
	clock := newFakeClock(testStart)
	m := NewManager(kv, backend, testAllowlist(), testSettings(),
		WithNowTime(clock.Now),
		WithMonitorIntervals(2*time.Millisecond, time.Hour),
	)
	t.Cleanup(m.Shutdown)

	require.True(t, m.SignIn(ctx, "ops@stylehub.example", "secret", false).Success)
	clock.Advance(9 * time.Hour)

	require.Eventually(t, func() bool {
		return m.CurrentState() == StateAnonymous
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, kv.Len())
}

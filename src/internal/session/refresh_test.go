package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stylehub-admin-svc/src/internal/models"
	"stylehub-admin-svc/src/internal/session/backendfakes"
	"stylehub-admin-svc/src/internal/session/kvfakes"
)

func newTestCoordinator(t *testing.T, now time.Time) (*RefreshCoordinator, *backendfakes.FakeAuthBackend, *Store) {
	t.Helper()
	kv := kvfakes.NewFakeKV()
	store := NewStore(kv, testDurations, "admin")
	store.now = func() time.Time { return now }
	backend := backendfakes.NewFakeAuthBackend()
	coordinator := NewRefreshCoordinator(store, backend, NewEvaluator(testDurations.Inactivity), testDurations)
	coordinator.now = store.now
	return coordinator, backend, store
}

func TestRefresh_NoopFarFromExpiry(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	coordinator, backend, _ := newTestCoordinator(t, t0)

	sess := &models.Session{
		Credential:   "tok",
		Principal:    "ops@stylehub.example",
		Expiry:       t0.Add(time.Hour),
		LastActivity: t0,
	}

	fresh, outcome := coordinator.Refresh(context.Background(), sess)
	require.Equal(t, RefreshNotNeeded, outcome)
	require.True(t, outcome.Succeeded())
	require.Same(t, sess, fresh)
	require.True(t, fresh.Expiry.Equal(t0.Add(time.Hour)))
	require.Equal(t, 0, backend.RefreshCalls)
}

func TestRefresh_BackendRenewal(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	coordinator, backend, _ := newTestCoordinator(t, t0)
	backend.SetLastPrincipal("ops@stylehub.example")

	sess := &models.Session{
		Credential:   "tok",
		Principal:    "ops@stylehub.example",
		Expiry:       t0.Add(4 * time.Minute),
		LastActivity: t0.Add(-time.Minute),
	}

	fresh, outcome := coordinator.Refresh(context.Background(), sess)
	require.Equal(t, RefreshRenewed, outcome)
	require.Equal(t, 1, backend.RefreshCalls)
	require.Equal(t, "refreshed-1", fresh.Credential)
	require.Equal(t, "ops@stylehub.example", fresh.Principal)
	require.True(t, fresh.Expiry.Equal(t0.Add(8*time.Hour)))
	require.True(t, fresh.LastActivity.Equal(t0))
	require.False(t, fresh.Remember)
}

func TestRefresh_PreservesRememberPreference(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	coordinator, _, _ := newTestCoordinator(t, t0)

	sess := &models.Session{
		Credential:   "tok",
		Principal:    "ops@stylehub.example",
		Expiry:       t0.Add(4 * time.Minute),
		LastActivity: t0,
		Remember:     true,
	}

	fresh, outcome := coordinator.Refresh(context.Background(), sess)
	require.Equal(t, RefreshRenewed, outcome)
	require.True(t, fresh.Remember)
	require.True(t, fresh.Expiry.Equal(t0.Add(30*24*time.Hour)))
}

func TestRefresh_ExpiryNeverDecreases(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	coordinator, _, _ := newTestCoordinator(t, t0)

	// A short-class renewal would land before this remembered session's
	// distant expiry; the old expiry must win.
	sess := &models.Session{
		Credential:   "tok",
		Principal:    "ops@stylehub.example",
		Expiry:       t0.Add(9 * time.Hour),
		LastActivity: t0,
	}
	// Force the near-expiry branch.
	coordinator.durations.RefreshThreshold = 10 * time.Hour

	fresh, outcome := coordinator.Refresh(context.Background(), sess)
	require.True(t, outcome.Succeeded())
	require.False(t, fresh.Expiry.Before(sess.Expiry))
}

func TestRefresh_LocalFallbackWhileStillValid(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	coordinator, backend, store := newTestCoordinator(t, t0)
	backend.RefreshFn = func(string) (*models.BackendSession, error) {
		return nil, errors.New("connection refused")
	}

	sess := &models.Session{
		Credential:   "tok",
		Principal:    "ops@stylehub.example",
		Expiry:       t0.Add(4 * time.Minute),
		LastActivity: t0.Add(-time.Minute),
	}

	fresh, outcome := coordinator.Refresh(context.Background(), sess)
	require.Equal(t, RefreshExtendedLocally, outcome)
	require.True(t, outcome.Succeeded())
	require.Equal(t, "tok", fresh.Credential)
	require.True(t, fresh.Expiry.Equal(t0.Add(8*time.Hour)))
	require.True(t, fresh.LastActivity.Equal(t0))

	// The extension is durable.
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.True(t, loaded.Expiry.Equal(t0.Add(8*time.Hour)))
}

func TestRefresh_NeverResurrectsInvalidSession(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("already expired", func(t *testing.T) {
		coordinator, backend, _ := newTestCoordinator(t, t0)
		backend.RefreshFn = func(string) (*models.BackendSession, error) {
			return nil, errors.New("connection refused")
		}

		sess := &models.Session{
			Credential:   "tok",
			Principal:    "ops@stylehub.example",
			Expiry:       t0.Add(-time.Minute),
			LastActivity: t0,
		}

		fresh, outcome := coordinator.Refresh(context.Background(), sess)
		require.Equal(t, RefreshFailed, outcome)
		require.False(t, outcome.Succeeded())
		require.True(t, fresh.Expiry.Equal(t0.Add(-time.Minute)))
	})

	t.Run("inactive too long", func(t *testing.T) {
		coordinator, backend, _ := newTestCoordinator(t, t0)
		backend.RefreshFn = func(string) (*models.BackendSession, error) {
			return nil, errors.New("connection refused")
		}

		sess := &models.Session{
			Credential:   "tok",
			Principal:    "ops@stylehub.example",
			Expiry:       t0.Add(4 * time.Minute),
			LastActivity: t0.Add(-3 * time.Hour),
		}

		_, outcome := coordinator.Refresh(context.Background(), sess)
		require.Equal(t, RefreshFailed, outcome)
	})

	t.Run("absent session", func(t *testing.T) {
		coordinator, _, _ := newTestCoordinator(t, t0)
		fresh, outcome := coordinator.Refresh(context.Background(), nil)
		require.Equal(t, RefreshFailed, outcome)
		require.Nil(t, fresh)
	})
}

package session

import (
	"context"
	"stylehub-admin-svc/src/internal/models"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RefreshCoordinator extends a session before it lapses. A mutex keeps a
// single refresh attempt in flight: a timer tick racing a manual extend
// queues behind the first attempt and then observes its result through the
// session's new expiry.
type RefreshCoordinator struct {
	mu        sync.Mutex
	store     *Store
	backend   AuthBackend
	evaluator *Evaluator
	durations Durations
	now       func() time.Time
}

func NewRefreshCoordinator(store *Store, backend AuthBackend, evaluator *Evaluator, durations Durations) *RefreshCoordinator {
	return &RefreshCoordinator{
		store:     store,
		backend:   backend,
		evaluator: evaluator,
		durations: durations,
		now:       time.Now,
	}
}

// RefreshOutcome tells the caller which path a refresh attempt took.
type RefreshOutcome int

const (
	RefreshFailed RefreshOutcome = iota
	RefreshNotNeeded
	RefreshRenewed
	RefreshExtendedLocally
)

// Succeeded reports whether the session remains usable after the attempt.
func (o RefreshOutcome) Succeeded() bool {
	return o != RefreshFailed
}

// Refresh returns the session to use from here on and the outcome. Far from
// expiry it is a successful no-op. Near expiry it prefers a backend-issued
// renewal, falling back to a local extension only while the current session
// is still valid. An already-invalid session is never resurrected.
func (r *RefreshCoordinator) Refresh(ctx context.Context, sess *models.Session) (*models.Session, RefreshOutcome) {
	if sess == nil {
		return nil, RefreshFailed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if sess.Expiry.Sub(now) > r.durations.RefreshThreshold {
		return sess, RefreshNotNeeded
	}

	bs, err := r.backend.RefreshCredential(ctx, sess.Credential)
	if err == nil && bs != nil {
		fresh := r.store.Build(bs.Credential, bs.Principal, sess.Remember)
		if fresh.Expiry.Before(sess.Expiry) {
			fresh.Expiry = sess.Expiry
		}
		if persistErr := r.store.Persist(ctx, fresh); persistErr != nil {
			logrus.WithError(persistErr).Warn("Failed to persist refreshed session")
		}
		logrus.WithField("principal", fresh.Principal).Debug("Session refreshed by backend")
		return fresh, RefreshRenewed
	}

	logrus.WithError(err).Warn("Backend session refresh failed")

	if !r.evaluator.IsValid(sess, now) {
		return sess, RefreshFailed
	}

	// Transient backend unavailability must not log out an active admin:
	// extend locally while the current session is still within its own
	// validity window.
	extended := *sess
	extended.Expiry = now.Add(r.durations.sessionDuration(sess.Remember))
	if extended.Expiry.Before(sess.Expiry) {
		extended.Expiry = sess.Expiry
	}
	extended.LastActivity = now
	if persistErr := r.store.Persist(ctx, &extended); persistErr != nil {
		logrus.WithError(persistErr).Warn("Failed to persist locally extended session")
	}
	logrus.WithField("principal", extended.Principal).Info("Session extended locally after backend refresh failure")
	return &extended, RefreshExtendedLocally
}

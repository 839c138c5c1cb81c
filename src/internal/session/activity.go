package session

import (
	"context"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
)

// Tracker stamps lastActivity whenever the admin shows up. In-memory state
// always advances immediately; the durable write is coalesced so the
// persisted value trails the true one by at most flushWindow.
type Tracker struct {
	store       *Store
	flushWindow time.Duration
	lastFlush   time.Time
	now         func() time.Time
}

func NewTracker(store *Store, flushWindow time.Duration) *Tracker {
	return &Tracker{
		store:       store,
		flushWindow: flushWindow,
		now:         time.Now,
	}
}

// Touch advances sess.LastActivity to now. Timestamps only move forward;
// a touch with a clock behind the recorded activity is a no-op.
func (t *Tracker) Touch(ctx context.Context, sess *models.Session) {
	if sess == nil {
		return
	}
	now := t.now()
	if now.Before(sess.LastActivity) {
		return
	}
	sess.LastActivity = now

	if now.Sub(t.lastFlush) < t.flushWindow {
		return
	}
	t.flush(ctx, sess, now)
}

// Reset stamps and durably writes lastActivity unconditionally. Used on
// sign-in and after a successful refresh.
func (t *Tracker) Reset(ctx context.Context, sess *models.Session) {
	if sess == nil {
		return
	}
	now := t.now()
	sess.LastActivity = now
	t.flush(ctx, sess, now)
}

func (t *Tracker) flush(ctx context.Context, sess *models.Session, now time.Time) {
	if err := t.store.Persist(ctx, sess); err != nil {
		logrus.WithError(err).Warn("Failed to persist activity timestamp")
		return
	}
	t.lastFlush = now
}

package session

import (
	"context"
	"encoding/json"
	"strconv"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
)

// Storage key suffixes. All four keys are written together on save and
// removed together on clear; a partially present record loads as absent.
const (
	keySession      = "_session"
	keyExpiry       = "_session_expiry"
	keyRememberMe   = "_remember_me"
	keyLastActivity = "_last_activity"
)

// Store persists the session record across service restarts. The credential
// blob (credential + principal) is stored as JSON; timestamps as RFC3339.
type Store struct {
	kv        KV
	durations Durations
	prefix    string
	now       func() time.Time
}

func NewStore(kv KV, durations Durations, prefix string) *Store {
	return &Store{
		kv:        kv,
		durations: durations,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Build computes a fresh session record without persisting it:
// expiry is now plus the duration class for remember, lastActivity is now.
func (s *Store) Build(credential, principal string, remember bool) *models.Session {
	now := s.now()
	return &models.Session{
		Credential:   credential,
		Principal:    principal,
		Expiry:       now.Add(s.durations.sessionDuration(remember)),
		LastActivity: now,
		Remember:     remember,
	}
}

// Save computes and durably writes a fresh session record.
func (s *Store) Save(ctx context.Context, credential, principal string, remember bool) (*models.Session, error) {
	sess := s.Build(credential, principal, remember)
	if err := s.Persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Persist writes an already-computed session record.
func (s *Store) Persist(ctx context.Context, sess *models.Session) error {
	blob, err := json.Marshal(models.BackendSession{
		Credential: sess.Credential,
		Principal:  sess.Principal,
	})
	if err != nil {
		return err
	}

	// Keys outlive the longest session class by a day so dead records
	// eventually leave Redis even if clear is never called.
	ttl := s.durations.Long + 24*time.Hour

	writes := map[string]string{
		s.prefix + keySession:      string(blob),
		s.prefix + keyExpiry:       sess.Expiry.UTC().Format(time.RFC3339Nano),
		s.prefix + keyRememberMe:   strconv.FormatBool(sess.Remember),
		s.prefix + keyLastActivity: sess.LastActivity.UTC().Format(time.RFC3339Nano),
	}
	for key, value := range writes {
		if err := s.kv.Set(ctx, key, value, ttl); err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to persist session field")
			return err
		}
	}
	return nil
}

// Load reads the persisted record. A missing or unparsable field means
// there is no session: the partial record is cleared and (nil, nil) is
// returned. Only storage-layer failures surface as errors.
func (s *Store) Load(ctx context.Context) (*models.Session, error) {
	blob, err := s.kv.Get(ctx, s.prefix+keySession)
	if err != nil {
		return nil, err
	}
	expiryRaw, err := s.kv.Get(ctx, s.prefix+keyExpiry)
	if err != nil {
		return nil, err
	}
	rememberRaw, err := s.kv.Get(ctx, s.prefix+keyRememberMe)
	if err != nil {
		return nil, err
	}
	activityRaw, err := s.kv.Get(ctx, s.prefix+keyLastActivity)
	if err != nil {
		return nil, err
	}

	if blob == "" || expiryRaw == "" || rememberRaw == "" || activityRaw == "" {
		if blob != "" || expiryRaw != "" || rememberRaw != "" || activityRaw != "" {
			logrus.Warn("Partial session record in store, treating as absent")
			s.clearQuietly(ctx)
		}
		return nil, nil
	}

	var bs models.BackendSession
	if err := json.Unmarshal([]byte(blob), &bs); err != nil {
		logrus.WithError(err).Warn("Corrupt session blob in store, treating as absent")
		s.clearQuietly(ctx)
		return nil, nil
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiryRaw)
	if err != nil {
		logrus.WithError(err).Warn("Corrupt session expiry in store, treating as absent")
		s.clearQuietly(ctx)
		return nil, nil
	}

	lastActivity, err := time.Parse(time.RFC3339Nano, activityRaw)
	if err != nil {
		logrus.WithError(err).Warn("Corrupt session activity timestamp in store, treating as absent")
		s.clearQuietly(ctx)
		return nil, nil
	}

	remember, err := strconv.ParseBool(rememberRaw)
	if err != nil {
		logrus.WithError(err).Warn("Corrupt remember preference in store, treating as absent")
		s.clearQuietly(ctx)
		return nil, nil
	}

	return &models.Session{
		Credential:   bs.Credential,
		Principal:    bs.Principal,
		Expiry:       expiry,
		LastActivity: lastActivity,
		Remember:     remember,
	}, nil
}

// Clear removes every session key. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx,
		s.prefix+keySession,
		s.prefix+keyExpiry,
		s.prefix+keyRememberMe,
		s.prefix+keyLastActivity,
	)
}

func (s *Store) clearQuietly(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to clear corrupt session record")
	}
}

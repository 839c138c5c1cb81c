package session

import (
	"context"
	"errors"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Gate states. The warning sub-state of authenticated lives in the
// notifier rather than here.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

const (
	msgNotAuthorized   = "This email is not authorized for admin access"
	msgUnexpectedError = "An unexpected error occurred during sign-in"
)

// Result is the sign-in outcome handed to the UI. Expected failures (bad
// credentials, non-allowlisted email) are values here, never error returns.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Manager owns the whole session lifecycle for one admin back office:
// the durable store, activity tracking, validity evaluation, refresh
// coordination, the expiry warning and the two background monitor timers.
// The surrounding application holds exactly one instance.
type Manager struct {
	mu sync.Mutex

	store       *Store
	tracker     *Tracker
	evaluator   *Evaluator
	coordinator *RefreshCoordinator
	notifier    *WarningNotifier
	backend     AuthBackend
	allowlist   *Allowlist

	audit     AuditRecorder
	publisher ActivityPublisher

	validityEvery time.Duration
	refreshEvery  time.Duration
	now           func() time.Time

	state       State
	sess        *models.Session
	stopMonitor chan struct{}
}

// ManagerOption modifies a Manager at construction time.
type ManagerOption func(*Manager)

// WithNowTime sets the clock on the manager and every component it owns
// (primarily for testing).
func WithNowTime(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
		m.store.now = now
		m.tracker.now = now
		m.coordinator.now = now
	}
}

// WithMonitorIntervals overrides the validity-check and proactive-refresh
// cadences.
func WithMonitorIntervals(validity, refresh time.Duration) ManagerOption {
	return func(m *Manager) {
		m.validityEvery = validity
		m.refreshEvery = refresh
	}
}

// WithAuditRecorder wires the sign-in audit trail.
func WithAuditRecorder(recorder AuditRecorder) ManagerOption {
	return func(m *Manager) {
		m.audit = recorder
	}
}

// WithActivityPublisher wires the best-effort activity message channel.
func WithActivityPublisher(publisher ActivityPublisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

func NewManager(kv KV, backend AuthBackend, allowlist *Allowlist, cfg config.SessionSettings, options ...ManagerOption) *Manager {
	durations := NewDurations(cfg)
	store := NewStore(kv, durations, cfg.KeyPrefix)
	evaluator := NewEvaluator(durations.Inactivity)

	m := &Manager{
		store:         store,
		tracker:       NewTracker(store, cfg.ActivityFlushWindow()),
		evaluator:     evaluator,
		coordinator:   NewRefreshCoordinator(store, backend, evaluator, durations),
		notifier:      NewWarningNotifier(durations.Warning),
		backend:       backend,
		allowlist:     allowlist,
		validityEvery: cfg.ValidityCheckInterval(),
		refreshEvery:  cfg.RefreshInterval(),
		now:           time.Now,
		state:         StateAnonymous,
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

// SignIn validates the email against the allow-list before any network
// call, delegates credential verification to the backend, then re-checks
// the allow-list against the backend-confirmed principal before persisting
// the session and starting the monitor.
func (m *Manager) SignIn(ctx context.Context, email, password string, remember bool) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	attemptID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{
		"attempt_id": attemptID,
		"email":      email,
	})

	if !m.allowlist.Contains(email) {
		log.Warn("Sign-in rejected: email not on allow-list")
		m.record(ctx, email, models.ActionSignInDenied, "allow-list", false)
		return Result{Success: false, Error: msgNotAuthorized}
	}

	m.state = StateAuthenticating

	bs, err := m.backend.Authenticate(ctx, email, password)
	if err != nil {
		m.state = StateAnonymous
		if errors.Is(err, models.ErrCredentialRejected) || errors.Is(err, models.ErrBackendUnavailable) {
			log.WithError(err).Warn("Backend rejected sign-in")
			m.record(ctx, email, models.ActionSignInDenied, "backend", false)
			return Result{Success: false, Error: err.Error()}
		}
		log.WithError(err).Error("Unexpected error during sign-in")
		m.record(ctx, email, models.ActionSignInDenied, "internal", false)
		return Result{Success: false, Error: msgUnexpectedError}
	}

	// The backend-confirmed principal can differ from the submitted email
	// (account email changed server-side, allow-list drift mid-login). The
	// just-issued credential is revoked on a post-auth miss.
	if !m.allowlist.Contains(bs.Principal) {
		m.state = StateAnonymous
		log.WithField("principal", bs.Principal).Warn("Backend principal not on allow-list, revoking credential")
		if revokeErr := m.backend.RevokeCredential(ctx, bs.Credential); revokeErr != nil {
			log.WithError(revokeErr).Warn("Failed to revoke credential after post-auth allow-list miss")
		}
		m.record(ctx, bs.Principal, models.ActionSignInDenied, "allow-list-post-auth", false)
		return Result{Success: false, Error: msgNotAuthorized}
	}

	sess, err := m.store.Save(ctx, bs.Credential, bs.Principal, remember)
	if err != nil {
		m.state = StateAnonymous
		log.WithError(err).Error("Failed to persist session after sign-in")
		return Result{Success: false, Error: msgUnexpectedError}
	}

	m.sess = sess
	m.state = StateAuthenticated
	m.notifier.Dismiss()
	m.startMonitorLocked()

	if metaErr := m.backend.RecordLoginMetadata(ctx, sess.Credential, m.now()); metaErr != nil {
		log.WithError(metaErr).Debug("Login metadata update failed, ignoring")
	}

	log.WithField("principal", sess.Principal).Info("Admin signed in")
	m.record(ctx, sess.Principal, models.ActionSignIn, "", true)
	return Result{Success: true}
}

// SignOut clears local state first so the UI reflects the anonymous state
// immediately, then revokes the backend credential best-effort. Idempotent.
func (m *Manager) SignOut(ctx context.Context) {
	m.signOut(ctx, models.ActionSignOut, "requested")
}

func (m *Manager) signOut(ctx context.Context, action, reason string) {
	m.mu.Lock()

	var credential, principal string
	if m.sess != nil {
		credential = m.sess.Credential
		principal = m.sess.Principal
	}

	if err := m.store.Clear(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to clear session store on sign-out")
	}
	m.sess = nil
	m.state = StateAnonymous
	m.notifier.Dismiss()
	m.stopMonitorLocked()
	m.mu.Unlock()

	if credential != "" {
		if err := m.backend.RevokeCredential(ctx, credential); err != nil {
			logrus.WithError(err).Warn("Backend sign-out failed, local state already cleared")
		}
		logrus.WithFields(logrus.Fields{
			"principal": principal,
			"reason":    reason,
		}).Info("Admin signed out")
		m.record(ctx, principal, action, reason, true)
	}
}

// Restore runs at cold start: an already-authenticated backend session is
// detected first, then the local store; a valid combination re-enters the
// authenticated state without a fresh sign-in.
func (m *Manager) Restore(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	bs, err := m.backend.CurrentSession(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Could not query backend session at startup")
		bs = nil
	}

	stored, err := m.store.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Could not load persisted session at startup")
		stored = nil
	}

	var sess *models.Session
	switch {
	case bs != nil:
		if !m.allowlist.Contains(bs.Principal) {
			logrus.WithField("principal", bs.Principal).Warn("Backend session principal not on allow-list, revoking")
			if revokeErr := m.backend.RevokeCredential(ctx, bs.Credential); revokeErr != nil {
				logrus.WithError(revokeErr).Warn("Failed to revoke non-allowlisted backend session")
			}
			m.store.clearQuietly(ctx)
			return false
		}
		if stored != nil {
			// Keep local expiry and activity, adopt the backend's
			// (possibly newer) credential.
			sess = stored
			sess.Credential = bs.Credential
			sess.Principal = bs.Principal
		} else {
			sess = m.store.Build(bs.Credential, bs.Principal, false)
		}
	case stored != nil:
		sess = stored
	default:
		return false
	}

	now := m.now()
	if !m.evaluator.IsValid(sess, now) {
		logrus.WithFields(logrus.Fields{
			"principal": sess.Principal,
			"reason":    m.evaluator.Invalidity(sess, now),
		}).Info("Persisted session no longer valid, clearing")
		m.store.clearQuietly(ctx)
		return false
	}

	if err := m.store.Persist(ctx, sess); err != nil {
		logrus.WithError(err).Warn("Failed to persist restored session")
	}

	m.sess = sess
	m.state = StateAuthenticated
	m.startMonitorLocked()
	logrus.WithField("principal", sess.Principal).Info("Admin session restored")
	m.record(ctx, sess.Principal, models.ActionSessionRestored, "", true)
	return true
}

// EnsureValid is the opportunistic validity check run before privileged
// actions and on every monitor tick. Invalidity forces a sign-out; a valid
// session feeds the warning notifier.
func (m *Manager) EnsureValid(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.sess == nil {
		m.mu.Unlock()
		return false
	}

	now := m.now()
	if !m.evaluator.IsValid(m.sess, now) {
		reason := m.evaluator.Invalidity(m.sess, now)
		m.mu.Unlock()
		logrus.WithField("reason", reason).Info("Session invalid, forcing sign-out")
		m.signOut(ctx, models.ActionForcedSignOut, reason)
		return false
	}

	m.notifier.Observe(m.sess, now)
	m.mu.Unlock()
	return true
}

// RefreshSession extends the session via the refresh coordinator. A
// successful backend renewal or local extension closes the warning.
func (m *Manager) RefreshSession(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated || m.sess == nil {
		return false
	}

	fresh, outcome := m.coordinator.Refresh(ctx, m.sess)
	if !outcome.Succeeded() {
		logrus.Warn("Session refresh failed")
		return false
	}

	m.sess = fresh
	m.notifier.Observe(m.sess, m.now())
	switch outcome {
	case RefreshRenewed:
		m.record(ctx, m.sess.Principal, models.ActionSessionRefresh, "", true)
	case RefreshExtendedLocally:
		m.record(ctx, m.sess.Principal, models.ActionRefreshFallback, "backend-unavailable", true)
	}
	return true
}

// Touch records admin activity on the current session.
func (m *Manager) Touch(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.sess == nil {
		return
	}
	m.tracker.Touch(ctx, m.sess)
}

// IsSessionValid reports validity without side effects.
func (m *Manager) IsSessionValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return false
	}
	return m.evaluator.IsValid(m.sess, m.now())
}

// SessionExpiry returns the current expiry, or nil when anonymous.
func (m *Manager) SessionExpiry() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	expiry := m.sess.Expiry
	return &expiry
}

// Warning exposes the countdown state for the UI.
func (m *Manager) Warning() WarningState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifier.State()
}

// CurrentState returns the gate state.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Principal returns the authenticated identity, for display only.
func (m *Manager) Principal() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.Principal
}

// MatchesCredential reports whether the presented token is the credential
// of the current session.
func (m *Manager) MatchesCredential(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil && token != "" && m.sess.Credential == token
}

// Shutdown stops the background monitor without signing the admin out.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMonitorLocked()
}

func (m *Manager) startMonitorLocked() {
	if m.stopMonitor != nil {
		return
	}
	stop := make(chan struct{})
	m.stopMonitor = stop
	go m.runMonitor(stop)
}

func (m *Manager) stopMonitorLocked() {
	if m.stopMonitor == nil {
		return
	}
	close(m.stopMonitor)
	m.stopMonitor = nil
}

// runMonitor drives the two independent cadences while authenticated: the
// validity check and the proactive refresh. Both stop when the
// authenticated state is left.
func (m *Manager) runMonitor(stop <-chan struct{}) {
	validity := time.NewTicker(m.validityEvery)
	defer validity.Stop()
	refresh := time.NewTicker(m.refreshEvery)
	defer refresh.Stop()

	for {
		select {
		case <-stop:
			return
		case <-validity.C:
			m.EnsureValid(context.Background())
		case <-refresh.C:
			if m.EnsureValid(context.Background()) {
				m.RefreshSession(context.Background())
			}
		}
	}
}

// record forwards an event to the audit trail and activity exchange, both
// best effort.
func (m *Manager) record(ctx context.Context, principal, action, reason string, success bool) {
	if m.audit != nil {
		m.audit.Record(ctx, principal, action, reason, success)
	}
	if m.publisher != nil {
		message := &models.ActivityMessage{
			EventID:     uuid.NewString(),
			Principal:   principal,
			ServiceName: models.ServiceSessionGate,
			Action:      action,
			Timestamp:   m.now(),
		}
		if reason != "" {
			message.Metadata = map[string]string{"reason": reason}
		}
		if err := m.publisher.PublishActivity(message); err != nil {
			logrus.WithError(err).Debug("Activity publish failed, ignoring")
		}
	}
}

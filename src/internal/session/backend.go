package session

import (
	"context"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"time"
)

// AuthBackend is the marketplace auth service as seen by the session
// lifecycle. Credentials passing through here are opaque strings.
type AuthBackend interface {
	Authenticate(ctx context.Context, principal, secret string) (*models.BackendSession, error)
	RefreshCredential(ctx context.Context, credential string) (*models.BackendSession, error)
	RevokeCredential(ctx context.Context, credential string) error
	CurrentSession(ctx context.Context) (*models.BackendSession, error)
	RecordLoginMetadata(ctx context.Context, credential string, at time.Time) error
}

// KV is the durable key/value storage behind the session store. Get returns
// an empty string for absent keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AuditRecorder receives sign-in/sign-out events for the audit trail.
// Recording is best effort; the manager never fails an operation over it.
type AuditRecorder interface {
	Record(ctx context.Context, principal, action, reason string, success bool)
}

// ActivityPublisher pushes session activity messages to the marketplace
// activity exchange, best effort.
type ActivityPublisher interface {
	PublishActivity(message *models.ActivityMessage) error
}

// Durations bundles every time constant the lifecycle components share.
type Durations struct {
	Short            time.Duration
	Long             time.Duration
	Inactivity       time.Duration
	RefreshThreshold time.Duration
	Warning          time.Duration
}

func NewDurations(cfg config.SessionSettings) Durations {
	return Durations{
		Short:            cfg.ShortDuration(),
		Long:             cfg.LongDuration(),
		Inactivity:       cfg.InactivityTimeout(),
		RefreshThreshold: cfg.RefreshThreshold(),
		Warning:          cfg.WarningThreshold(),
	}
}

// sessionDuration picks the expiry duration class for the remember
// preference.
func (d Durations) sessionDuration(remember bool) time.Duration {
	if remember {
		return d.Long
	}
	return d.Short
}

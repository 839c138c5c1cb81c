package session

import (
	"stylehub-admin-svc/src/internal/models"
	"time"
)

// Evaluator is the pure validity check: a session is valid iff now is
// strictly before expiry and the gap since the last activity is strictly
// under the inactivity timeout. Both conditions are required.
type Evaluator struct {
	inactivityTimeout time.Duration
}

func NewEvaluator(inactivityTimeout time.Duration) *Evaluator {
	return &Evaluator{inactivityTimeout: inactivityTimeout}
}

func (e *Evaluator) IsValid(sess *models.Session, now time.Time) bool {
	if sess == nil {
		return false
	}
	if !now.Before(sess.Expiry) {
		return false
	}
	return now.Sub(sess.LastActivity) < e.inactivityTimeout
}

// Invalidity names the violated condition, for audit reasons and logs.
// Empty when the session is valid.
func (e *Evaluator) Invalidity(sess *models.Session, now time.Time) string {
	switch {
	case sess == nil:
		return "absent"
	case !now.Before(sess.Expiry):
		return "expired"
	case now.Sub(sess.LastActivity) >= e.inactivityTimeout:
		return "inactive"
	default:
		return ""
	}
}

package models

import "time"

// ActivityMessage is the best-effort session activity event published to the
// marketplace activity exchange. Publish failures never affect the outcome
// of the session operation that produced them.
type ActivityMessage struct {
	EventID     string            `json:"event_id"`
	Principal   string            `json:"principal"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionSignIn          = "sign_in"
	ActionSignInDenied    = "sign_in_denied"
	ActionSignOut         = "sign_out"
	ActionForcedSignOut   = "forced_sign_out"
	ActionSessionRefresh  = "session_refresh"
	ActionRefreshFallback = "session_refresh_fallback"
	ActionSessionRestored = "session_restored"
)

// Service name constants
const (
	ServiceSessionGate    = "admin.session.gate"
	ServiceSessionMonitor = "admin.session.monitor"
	ServiceSessionRefresh = "admin.session.refresh"
)

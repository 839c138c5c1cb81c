package session

import (
	"fmt"
	"stylehub-admin-svc/src/internal/models"
	"time"
)

// WarningState is the countdown contract the admin UI renders. Closing the
// warning means "sign out now", not "dismiss and ignore".
type WarningState struct {
	IsOpen          bool   `json:"isOpen"`
	TimeLeftSeconds int    `json:"timeLeftSeconds"`
	Countdown       string `json:"countdown"`
}

// WarningNotifier derives the warning from the session state on every
// observation instead of arming a one-shot timer, so a drifted or delayed
// tick still lands on the right answer.
type WarningNotifier struct {
	threshold time.Duration
	state     WarningState
}

func NewWarningNotifier(threshold time.Duration) *WarningNotifier {
	return &WarningNotifier{threshold: threshold}
}

// Observe recomputes the warning from the session and the given time.
func (n *WarningNotifier) Observe(sess *models.Session, now time.Time) {
	if sess == nil {
		n.state = WarningState{}
		return
	}
	left := sess.Expiry.Sub(now)
	if left <= 0 || left > n.threshold {
		n.state = WarningState{}
		return
	}
	seconds := int(left / time.Second)
	n.state = WarningState{
		IsOpen:          true,
		TimeLeftSeconds: seconds,
		Countdown:       FormatCountdown(seconds),
	}
}

// Dismiss closes the warning, e.g. after sign-out or a successful extend.
func (n *WarningNotifier) Dismiss() {
	n.state = WarningState{}
}

func (n *WarningNotifier) State() WarningState {
	return n.state
}

// FormatCountdown renders remaining seconds as minutes:seconds with
// zero-padded seconds, e.g. 240 -> "4:00", 59 -> "0:59".
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

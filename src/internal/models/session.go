package models

import "time"

// Session is the admin session record kept by the session store. Credential
// is the opaque token issued by the auth backend and is never interpreted
// here; validity is decided purely from Expiry and LastActivity.
type Session struct {
	Credential   string    `json:"credential"`
	Principal    string    `json:"principal"`
	Expiry       time.Time `json:"expiry"`
	LastActivity time.Time `json:"lastActivity"`
	Remember     bool      `json:"remember"`
}

// BackendSession is what the auth backend hands out on authenticate,
// refresh and current-session calls.
type BackendSession struct {
	Credential string `json:"credential"`
	Principal  string `json:"principal"`
}

package session

import "strings"

// Allowlist is the fixed set of emails permitted into the back office.
// Membership is the only authorization decision the gate makes; everything
// else belongs to the auth backend.
type Allowlist struct {
	members map[string]struct{}
}

func NewAllowlist(emails []string) *Allowlist {
	members := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		members[email] = struct{}{}
	}
	return &Allowlist{members: members}
}

// Contains reports membership, case-insensitively.
func (a *Allowlist) Contains(email string) bool {
	_, ok := a.members[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func (a *Allowlist) Size() int {
	return len(a.members)
}

package models

// SignInStats summarizes the admin sign-in audit trail.
type SignInStats struct {
	Total          int64 `json:"total"`
	Succeeded      int64 `json:"succeeded"`
	Denied         int64 `json:"denied"`
	Rejected       int64 `json:"rejected"`
	ForcedSignOuts int64 `json:"forcedSignOuts"`
	ThisMonth      int64 `json:"thisMonth"`
}

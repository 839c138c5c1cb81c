package audit

import (
	"time"

	"stylehub-admin-svc/src/internal/models"
)

// Event is one entry in the admin sign-in audit trail.
type Event struct {
	ID        string    `json:"id" bson:"_id"`
	Principal string    `json:"principal" bson:"principal"`
	Action    string    `json:"action" bson:"action"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty"`
	Success   bool      `json:"success" bson:"success"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// ListEventsRequest carries paging and filters for the history endpoint.
type ListEventsRequest struct {
	Page      int    `json:"page" form:"page"`
	Limit     int    `json:"limit" form:"limit"`
	Action    string `json:"action" form:"action"`
	Principal string `json:"principal" form:"principal"`
	Search    string `json:"search" form:"search"`
}

// ListEventsResponse is the paged history payload.
type ListEventsResponse struct {
	Events     []*Event `json:"events"`
	TotalCount int64    `json:"totalCount"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

func isValidAction(action string) bool {
	validActions := []string{
		models.ActionSignIn,
		models.ActionSignInDenied,
		models.ActionSignOut,
		models.ActionForcedSignOut,
		models.ActionSessionRefresh,
		models.ActionRefreshFallback,
		models.ActionSessionRestored,
	}
	for _, valid := range validActions {
		if valid == action {
			return true
		}
	}
	return false
}

package audit

import (
	"context"
	"math"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Record(ctx context.Context, principal, action, reason string, success bool)
	ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error)
	GetSignInStats(ctx context.Context) (*models.SignInStats, error)
}

type auditService struct {
	repository Repository
	cfg        *config.Configuration
	now        func() time.Time
}

func NewAuditService(repository Repository, cfg *config.Configuration) Service {
	return &auditService{
		repository: repository,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Record writes a session event to the trail. Best effort: failures are
// logged and swallowed so the session operation that produced the event is
// never affected.
func (s *auditService) Record(ctx context.Context, principal, action, reason string, success bool) {
	event := &Event{
		ID:        uuid.NewString(),
		Principal: principal,
		Action:    action,
		Reason:    reason,
		Success:   success,
		CreatedAt: s.now(),
	}

	if err := s.repository.Insert(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"principal": principal,
			"action":    action,
		}).Warn("Audit event dropped")
	}
}

func (s *auditService) ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	// Validate and set defaults
	if req.Limit <= 0 {
		req.Limit = s.cfg.Search.MinQueryLimit
	}
	if req.Limit > s.cfg.Search.MaxQueryLimit {
		req.Limit = s.cfg.Search.MaxQueryLimit
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	if req.Action != "" && !isValidAction(req.Action) {
		return nil, models.ErrInvalidParams
	}

	logrus.WithFields(logrus.Fields{
		"page":   req.Page,
		"limit":  req.Limit,
		"action": req.Action,
		"search": req.Search,
	}).Debug("Listing audit events")

	events, totalCount, err := s.repository.ListEvents(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to list audit events from repository")
		return nil, err
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(req.Limit)))

	response := &ListEventsResponse{
		Events:     events,
		TotalCount: totalCount,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}

	logrus.WithFields(logrus.Fields{
		"events_count": len(events),
		"total_count":  totalCount,
		"total_pages":  totalPages,
	}).Info("Successfully retrieved audit events")

	return response, nil
}

func (s *auditService) GetSignInStats(ctx context.Context) (*models.SignInStats, error) {
	logrus.Debug("Getting sign-in statistics")

	stats, err := s.repository.GetSignInStats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get sign-in stats from repository")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"total":            stats.Total,
		"succeeded":        stats.Succeeded,
		"denied":           stats.Denied,
		"forced_sign_outs": stats.ForcedSignOuts,
		"this_month":       stats.ThisMonth,
	}).Info("Successfully retrieved sign-in statistics")

	return stats, nil
}

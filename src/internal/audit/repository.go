package audit

import (
	"context"
	"stylehub-admin-svc/src/clients"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	regexKey   = "$regex"
	optionsKey = "$options"
)

type Repository interface {
	Insert(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, req *ListEventsRequest) ([]*Event, int64, error)
	GetSignInStats(ctx context.Context) (*models.SignInStats, error)
}

type auditRepository struct {
	Collection mongo.Collection
}

func NewAuditRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := *mongoClient.Database.Collection(collectionName)
	return &auditRepository{
		Collection: collection,
	}
}

func (r *auditRepository) Insert(ctx context.Context, event *Event) error {
	if _, err := r.Collection.InsertOne(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"principal": event.Principal,
			"action":    event.Action,
		}).Error("Failed to insert audit event")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *auditRepository) ListEvents(ctx context.Context, req *ListEventsRequest) ([]*Event, int64, error) {
	collection := r.Collection

	// Build filter
	filter := bson.M{}

	if req.Action != "" {
		filter["action"] = req.Action
	}

	if req.Principal != "" {
		filter["principal"] = req.Principal
	}

	if req.Search != "" {
		filter["$or"] = []bson.M{
			{"principal": bson.M{regexKey: req.Search, optionsKey: "i"}},
			{"reason": bson.M{regexKey: req.Search, optionsKey: "i"}},
		}
	}

	totalCount, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count audit events")
		return nil, 0, models.ErrDatabaseQuery
	}

	skip := (req.Page - 1) * req.Limit

	opts := options.Find().
		SetLimit(int64(req.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.M{"created_at": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find audit events")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var events []*Event
	for cursor.Next(ctx) {
		var event Event
		if err := cursor.Decode(&event); err != nil {
			logrus.WithError(err).Error("Failed to decode audit event")
			continue
		}
		events = append(events, &event)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, 0, models.ErrDatabaseQuery
	}

	logrus.WithFields(logrus.Fields{
		"count": len(events),
		"total": totalCount,
		"page":  req.Page,
		"limit": req.Limit,
	}).Debug("Retrieved audit events successfully")

	return events, totalCount, nil
}

func (r *auditRepository) GetSignInStats(ctx context.Context) (*models.SignInStats, error) {
	total, err := r.countEvents(ctx, bson.M{"action": bson.M{"$in": []string{models.ActionSignIn, models.ActionSignInDenied}}})
	if err != nil {
		return nil, err
	}

	succeeded, err := r.countEvents(ctx, bson.M{"action": models.ActionSignIn, "success": true})
	if err != nil {
		return nil, err
	}

	denied, err := r.countEvents(ctx, bson.M{"action": models.ActionSignInDenied, "reason": bson.M{regexKey: "^allow-list"}})
	if err != nil {
		return nil, err
	}

	rejected, err := r.countEvents(ctx, bson.M{"action": models.ActionSignInDenied, "reason": "backend"})
	if err != nil {
		return nil, err
	}

	forcedSignOuts, err := r.countEvents(ctx, bson.M{"action": models.ActionForcedSignOut})
	if err != nil {
		return nil, err
	}

	thisMonth, err := r.countEventsThisMonth(ctx)
	if err != nil {
		return nil, err
	}

	return &models.SignInStats{
		Total:          total,
		Succeeded:      succeeded,
		Denied:         denied,
		Rejected:       rejected,
		ForcedSignOuts: forcedSignOuts,
		ThisMonth:      thisMonth,
	}, nil
}

func (r *auditRepository) countEvents(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count audit events")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

func (r *auditRepository) countEventsThisMonth(ctx context.Context) (int64, error) {
	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	filter := bson.M{
		"action":     models.ActionSignIn,
		"created_at": bson.M{"$gte": startOfMonth},
	}
	return r.countEvents(ctx, filter)
}

package basesvc

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"servicehub/internal/common"
	"servicehub/internal/statushistory"
)

// TrackedStore is the Mongo persistence of an entity that is created, read and then only
// moves through statuses. Every read and write is scoped to the owning organization.
type TrackedStore[T any, V ~string] struct {
	*BaseServiceMongoImpl[T]
	entity  string
	tracker statushistory.Tracker[V]
}

func NewTrackedStore[T any, V ~string](collection *mongo.Collection, entity string, tracker statushistory.Tracker[V]) *TrackedStore[T, V] {
	return &TrackedStore[T, V]{
		BaseServiceMongoImpl: NewBaseServiceMongo[T](collection),
		entity:               entity,
		tracker:              tracker,
	}
}

func (s *TrackedStore[T, V]) scoped(org, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "ownerOrganizationId": org}
}

func (s *TrackedStore[T, V]) notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NotFoundError(s.entity, id.Hex())
	}
	return err
}

func (s *TrackedStore[T, V]) Insert(ctx context.Context, doc T) (T, error) {
	return s.InsertOne(ctx, doc)
}

func (s *TrackedStore[T, V]) Get(ctx context.Context, org, id primitive.ObjectID) (T, error) {
	doc, err := s.FindOne(ctx, s.scoped(org, id), nil)
	return doc, s.notFound(err, id)
}

// Page lists the organization's documents matching filter, newest first.
func (s *TrackedStore[T, V]) Page(ctx context.Context, org primitive.ObjectID, filter bson.M, page, limit int64) ([]T, int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	filter["ownerOrganizationId"] = org
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	res, err := s.FindWithPagination(ctx, filter, page, limit, opts)
	if err != nil {
		return nil, 0, err
	}
	return res.Items, res.Total, nil
}

// Transition pushes the current status onto the history and stores next.
func (s *TrackedStore[T, V]) Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[V]) (T, error) {
	return s.TransitionWith(ctx, org, id, next, nil)
}

// TransitionWith is Transition writing set in the same update.
func (s *TrackedStore[T, V]) TransitionWith(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[V], set bson.M) (T, error) {
	doc, err := TransitionStatus(ctx, s.BaseServiceMongoImpl, s.tracker, s.scoped(org, id), next, set)
	return doc, s.notFound(err, id)
}

// ClampPage applies the listing defaults: page from 1, limit 50 unless within (0, 200].
func ClampPage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return page, limit
}

// PrefixMatch matches strings starting with prefix, ignoring case.
func PrefixMatch(prefix string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}
}

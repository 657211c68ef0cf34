package visitsvc

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/common"
	"servicehub/internal/global"
	"servicehub/internal/statushistory"
)

const entityVisit = "visit"

// ListFilter narrows a listing. Zero fields do not filter; Limit 0 returns everything.
type ListFilter struct {
	Job   primitive.ObjectID
	From  string
	To    string
	Page  int64
	Limit int64
}

// Store is the persistence the visit service needs. Every method ignores soft-deleted
// visits and scopes by organization.
type Store interface {
	Insert(ctx context.Context, v visitmodels.Visit) (visitmodels.Visit, error)
	Get(ctx context.Context, org, id primitive.ObjectID) (visitmodels.Visit, error)
	List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]visitmodels.Visit, int64, error)
	// Save writes the schedule and content fields of v. Status, completion and feedback
	// have their own methods and are never overwritten here.
	Save(ctx context.Context, v visitmodels.Visit) (visitmodels.Visit, error)
	AddExclusion(ctx context.Context, org, id primitive.ObjectID, rule string) (visitmodels.Visit, error)
	Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status]) (visitmodels.Visit, error)
	// Complete transitions to next and writes the completion, only while isCompleted is false.
	Complete(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status], c basemodels.Completion) (visitmodels.Visit, error)
	SetFeedback(ctx context.Context, org, id primitive.ObjectID, fb basemodels.Feedback) (visitmodels.Visit, error)
	// Exceptions lists the single-occurrence visits detached from series and dated from on.
	Exceptions(ctx context.Context, org, series primitive.ObjectID, from string) ([]visitmodels.Visit, error)
	// Reparent points the exceptions ids at series.
	Reparent(ctx context.Context, org primitive.ObjectID, ids []primitive.ObjectID, series primitive.ObjectID) error
	DeleteIDs(ctx context.Context, org primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	SoftDelete(ctx context.Context, org, id primitive.ObjectID) error
	// EnsureUnreferenced fails while a live job uses the visit as its primary visit.
	EnsureUnreferenced(ctx context.Context, id primitive.ObjectID) error
	JobExists(ctx context.Context, org, job primitive.ObjectID) (bool, error)
}

// InRange reports whether v can have an occurrence in [from, to]. Either bound may be empty.
// startDate bounds from below and endDate from above; a series without endDate is open-ended
// and a single visit without endDate lasts one day.
func InRange(v visitmodels.Visit, from, to string) bool {
	if to != "" && v.StartDate > to {
		return false
	}
	if from == "" {
		return true
	}
	switch {
	case v.EndDate != "":
		return v.EndDate >= from
	case v.IsRecurring():
		return true
	default:
		return v.StartDate >= from
	}
}

// rangeFilter is the query form of InRange.
func rangeFilter(from, to string) bson.M {
	f := bson.M{}
	if to != "" {
		f["startDate"] = bson.M{"$lte": to}
	}
	if from != "" {
		noEnd := bson.M{"$exists": false}
		f["$or"] = bson.A{
			bson.M{"endDate": bson.M{"$gte": from}},
			bson.M{"endDate": noEnd, "rruleSet": bson.M{"$exists": true}},
			bson.M{"endDate": noEnd, "rruleSet": bson.M{"$exists": false}, "startDate": bson.M{"$gte": from}},
		}
	}
	return f
}

// MongoStore keeps visits in the visits collection.
type MongoStore struct {
	*basesvc.BaseServiceMongoImpl[visitmodels.Visit]
}

// NewMongoStore looks the visits collection up in the registry.
func NewMongoStore() (*MongoStore, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Visits)
	if !exist {
		return nil, fmt.Errorf("collection %s not registered: %w", global.MongoDB_ColNames.Visits, common.ErrNotFound)
	}
	return &MongoStore{BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[visitmodels.Visit](coll)}, nil
}

func live(org, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "ownerOrganizationId": org, "isDeleted": false}
}

func notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NotFoundError(entityVisit, id.Hex())
	}
	return err
}

func (s *MongoStore) Insert(ctx context.Context, v visitmodels.Visit) (visitmodels.Visit, error) {
	return s.InsertOne(ctx, v)
}

func (s *MongoStore) Get(ctx context.Context, org, id primitive.ObjectID) (visitmodels.Visit, error) {
	v, err := s.FindOne(ctx, live(org, id), nil)
	return v, notFound(err, id)
}

func (s *MongoStore) List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]visitmodels.Visit, int64, error) {
	filter := rangeFilter(f.From, f.To)
	filter["ownerOrganizationId"] = org
	filter["isDeleted"] = false
	if !f.Job.IsZero() {
		filter["job"] = f.Job
	}
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}, {Key: "startTime", Value: 1}, {Key: "_id", Value: 1}})

	if f.Limit <= 0 {
		items, err := s.Find(ctx, filter, opts)
		return items, int64(len(items)), err
	}
	page, err := s.FindWithPagination(ctx, filter, f.Page, f.Limit, opts)
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (s *MongoStore) Save(ctx context.Context, v visitmodels.Visit) (visitmodels.Visit, error) {
	set := bson.M{
		"isPrimary": v.IsPrimary,
		"startDate": v.StartDate,
		"excRrule":  nonNil(v.ExcRRule),
		"team":      v.Team,
		"lineItems": v.LineItems,
	}
	unset := bson.M{}
	for field, value := range map[string]string{
		"title":        v.Title,
		"instructions": v.Instructions,
		"endDate":      v.EndDate,
		"startTime":    v.StartTime,
		"endTime":      v.EndTime,
		"rruleSet":     v.RRuleSet,
	} {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}

	update := &basesvc.UpdateData{Set: set}
	if len(unset) > 0 {
		update.Unset = unset
	}
	saved, err := s.FindOneAndUpdate(ctx, live(v.OwnerOrganizationID, v.ID), update)
	return saved, notFound(err, v.ID)
}

func (s *MongoStore) AddExclusion(ctx context.Context, org, id primitive.ObjectID, rule string) (visitmodels.Visit, error) {
	v, err := s.FindOneAndUpdate(ctx, live(org, id), bson.M{"$addToSet": bson.M{"excRrule": rule}})
	return v, notFound(err, id)
}

func (s *MongoStore) Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status]) (visitmodels.Visit, error) {
	v, err := basesvc.TransitionStatus(ctx, s.BaseServiceMongoImpl, visitmodels.Tracker, live(org, id), next, nil)
	return v, notFound(err, id)
}

func (s *MongoStore) Complete(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status], c basemodels.Completion) (visitmodels.Visit, error) {
	filter := live(org, id)
	filter["isCompleted"] = false
	v, err := basesvc.TransitionStatus(ctx, s.BaseServiceMongoImpl, visitmodels.Tracker, filter, next, bson.M{
		"isCompleted": true,
		"completion":  c,
	})
	if err == nil || !errors.Is(err, common.ErrNotFound) {
		return v, err
	}
	current, getErr := s.Get(ctx, org, id)
	if getErr != nil {
		return visitmodels.Visit{}, getErr
	}
	if current.IsCompleted {
		return visitmodels.Visit{}, common.AlreadyCompletedError(entityVisit, id.Hex())
	}
	return visitmodels.Visit{}, err
}

func (s *MongoStore) SetFeedback(ctx context.Context, org, id primitive.ObjectID, fb basemodels.Feedback) (visitmodels.Visit, error) {
	v, err := s.FindOneAndUpdate(ctx, live(org, id), &basesvc.UpdateData{Set: map[string]interface{}{"feedback": fb}})
	return v, notFound(err, id)
}

func (s *MongoStore) Exceptions(ctx context.Context, org, series primitive.ObjectID, from string) ([]visitmodels.Visit, error) {
	return s.Find(ctx, bson.M{
		"ownerOrganizationId": org,
		"series":              series,
		"isDeleted":           false,
		"rruleSet":            bson.M{"$exists": false},
		"startDate":           bson.M{"$gte": from},
	}, nil)
}

func (s *MongoStore) Reparent(ctx context.Context, org primitive.ObjectID, ids []primitive.ObjectID, series primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "ownerOrganizationId": org}, &basesvc.UpdateData{
		Set: map[string]interface{}{"series": series},
	})
	return err
}

func (s *MongoStore) DeleteIDs(ctx context.Context, org primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "ownerOrganizationId": org})
}

func (s *MongoStore) SoftDelete(ctx context.Context, org, id primitive.ObjectID) error {
	_, err := s.FindOneAndUpdate(ctx, live(org, id), &basesvc.UpdateData{Set: map[string]interface{}{"isDeleted": true}})
	return notFound(err, id)
}

func (s *MongoStore) EnsureUnreferenced(ctx context.Context, id primitive.ObjectID) error {
	return basesvc.CheckRelationshipExists(ctx, id, []basesvc.RelationshipCheck{{
		CollectionName: global.MongoDB_ColNames.Jobs,
		FieldName:      "primaryVisit",
		Extra:          bson.M{"isDeleted": false},
		ErrorMessage:   "Visit is the primary visit of %d job(s); delete or reschedule the job instead",
	}})
}

func (s *MongoStore) JobExists(ctx context.Context, org, job primitive.ObjectID) (bool, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Jobs)
	if !exist {
		return false, fmt.Errorf("collection %s not registered", global.MongoDB_ColNames.Jobs)
	}
	err := coll.FindOne(ctx, live(org, job), options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return true, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// OpenOn lists the live, uncompleted visits of every organization that can occur on day.
func (s *MongoStore) OpenOn(ctx context.Context, day string) ([]visitmodels.Visit, error) {
	filter := rangeFilter(day, day)
	filter["isDeleted"] = false
	filter["isCompleted"] = false
	return s.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "ownerOrganizationId", Value: 1}, {Key: "startTime", Value: 1}}))
}

package jobsvc

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	jobmodels "servicehub/internal/api/job/models"
	"servicehub/internal/common"
	"servicehub/internal/global"
	"servicehub/internal/statushistory"
)

const entityJob = "job"

// ListFilter narrows a job listing. Client matches the start of the client's full name.
type ListFilter struct {
	Status jobmodels.Status
	Client string
	Page   int64
	Limit  int64
}

// Store is the persistence the job service needs. Soft-deleted jobs are invisible.
type Store interface {
	Insert(ctx context.Context, j jobmodels.Job) (jobmodels.Job, error)
	Get(ctx context.Context, org, id primitive.ObjectID) (jobmodels.Job, error)
	List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]jobmodels.Job, int64, error)
	// SetSchedule points the job at its primary visit and mirrors the visit's start date.
	SetSchedule(ctx context.Context, org, id, primaryVisit primitive.ObjectID, startDate string) (jobmodels.Job, error)
	Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[jobmodels.Status]) (jobmodels.Job, error)
	Complete(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[jobmodels.Status], c basemodels.Completion) (jobmodels.Job, error)
	SetFeedback(ctx context.Context, org, id primitive.ObjectID, fb basemodels.Feedback) (jobmodels.Job, error)
	SoftDelete(ctx context.Context, org, id primitive.ObjectID) error
}

// MongoStore keeps jobs in the jobs collection.
type MongoStore struct {
	*basesvc.BaseServiceMongoImpl[jobmodels.Job]
}

func NewMongoStore() (*MongoStore, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Jobs)
	if !exist {
		return nil, fmt.Errorf("collection %s not registered: %w", global.MongoDB_ColNames.Jobs, common.ErrNotFound)
	}
	return &MongoStore{BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[jobmodels.Job](coll)}, nil
}

func live(org, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "ownerOrganizationId": org, "isDeleted": false}
}

func notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NotFoundError(entityJob, id.Hex())
	}
	return err
}

func (s *MongoStore) Insert(ctx context.Context, j jobmodels.Job) (jobmodels.Job, error) {
	return s.InsertOne(ctx, j)
}

func (s *MongoStore) Get(ctx context.Context, org, id primitive.ObjectID) (jobmodels.Job, error) {
	j, err := s.FindOne(ctx, live(org, id), nil)
	return j, notFound(err, id)
}

func (s *MongoStore) List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]jobmodels.Job, int64, error) {
	filter := bson.M{"ownerOrganizationId": org, "isDeleted": false}
	if f.Status != "" {
		filter["status.status"] = f.Status
	}
	if f.Client != "" {
		filter["client.fullName"] = basesvc.PrefixMatch(f.Client)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	page, err := s.FindWithPagination(ctx, filter, f.Page, f.Limit, opts)
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (s *MongoStore) SetSchedule(ctx context.Context, org, id, primaryVisit primitive.ObjectID, startDate string) (jobmodels.Job, error) {
	j, err := s.FindOneAndUpdate(ctx, live(org, id), &basesvc.UpdateData{Set: map[string]interface{}{
		"primaryVisit": primaryVisit,
		"startDate":    startDate,
		"type":         jobmodels.TypeRecurring,
	}})
	return j, notFound(err, id)
}

func (s *MongoStore) Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[jobmodels.Status]) (jobmodels.Job, error) {
	j, err := basesvc.TransitionStatus(ctx, s.BaseServiceMongoImpl, jobmodels.Tracker, live(org, id), next, nil)
	return j, notFound(err, id)
}

func (s *MongoStore) Complete(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[jobmodels.Status], c basemodels.Completion) (jobmodels.Job, error) {
	filter := live(org, id)
	filter["isCompleted"] = false
	j, err := basesvc.TransitionStatus(ctx, s.BaseServiceMongoImpl, jobmodels.Tracker, filter, next, bson.M{
		"isCompleted": true,
		"completion":  c,
	})
	if err == nil || !errors.Is(err, common.ErrNotFound) {
		return j, err
	}
	current, getErr := s.Get(ctx, org, id)
	if getErr != nil {
		return jobmodels.Job{}, getErr
	}
	if current.IsCompleted {
		return jobmodels.Job{}, common.AlreadyCompletedError(entityJob, id.Hex())
	}
	return jobmodels.Job{}, err
}

func (s *MongoStore) SetFeedback(ctx context.Context, org, id primitive.ObjectID, fb basemodels.Feedback) (jobmodels.Job, error) {
	j, err := s.FindOneAndUpdate(ctx, live(org, id), &basesvc.UpdateData{Set: map[string]interface{}{"feedback": fb}})
	return j, notFound(err, id)
}

func (s *MongoStore) SoftDelete(ctx context.Context, org, id primitive.ObjectID) error {
	_, err := s.FindOneAndUpdate(ctx, live(org, id), &basesvc.UpdateData{Set: map[string]interface{}{"isDeleted": true}})
	return notFound(err, id)
}

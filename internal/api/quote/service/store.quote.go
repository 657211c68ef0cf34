package quotesvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "servicehub/internal/api/base/service"
	quotemodels "servicehub/internal/api/quote/models"
	"servicehub/internal/common"
	"servicehub/internal/global"
	"servicehub/internal/statushistory"
)

const entityQuote = "quote"

type ListFilter struct {
	Status quotemodels.Status
	Client string
	Job    primitive.ObjectID
	Page   int64
	Limit  int64
}

// Store is the persistence the quote and order services need.
type Store interface {
	Insert(ctx context.Context, q quotemodels.Quote) (quotemodels.Quote, error)
	Get(ctx context.Context, org, id primitive.ObjectID) (quotemodels.Quote, error)
	List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]quotemodels.Quote, int64, error)
	Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[quotemodels.Status]) (quotemodels.Quote, error)
}

type MongoStore struct {
	*basesvc.TrackedStore[quotemodels.Quote, quotemodels.Status]
}

func NewMongoStore() (*MongoStore, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Quotes)
	if !exist {
		return nil, fmt.Errorf("collection %s not registered: %w", global.MongoDB_ColNames.Quotes, common.ErrNotFound)
	}
	return &MongoStore{TrackedStore: basesvc.NewTrackedStore[quotemodels.Quote](coll, entityQuote, quotemodels.Tracker)}, nil
}

func (s *MongoStore) List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]quotemodels.Quote, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status.status"] = f.Status
	}
	if f.Client != "" {
		filter["client.fullName"] = basesvc.PrefixMatch(f.Client)
	}
	if !f.Job.IsZero() {
		filter["job"] = f.Job
	}
	return s.Page(ctx, org, filter, f.Page, f.Limit)
}

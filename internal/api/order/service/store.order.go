package ordersvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "servicehub/internal/api/base/service"
	ordermodels "servicehub/internal/api/order/models"
	"servicehub/internal/common"
	"servicehub/internal/global"
	"servicehub/internal/statushistory"
)

const entityOrder = "order"

type ListFilter struct {
	Status ordermodels.Status
	Quote  primitive.ObjectID
	Page   int64
	Limit  int64
}

type Store interface {
	Insert(ctx context.Context, o ordermodels.Order) (ordermodels.Order, error)
	Get(ctx context.Context, org, id primitive.ObjectID) (ordermodels.Order, error)
	List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]ordermodels.Order, int64, error)
	Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[ordermodels.Status]) (ordermodels.Order, error)
}

type MongoStore struct {
	*basesvc.TrackedStore[ordermodels.Order, ordermodels.Status]
}

func NewMongoStore() (*MongoStore, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Orders)
	if !exist {
		return nil, fmt.Errorf("collection %s not registered: %w", global.MongoDB_ColNames.Orders, common.ErrNotFound)
	}
	return &MongoStore{TrackedStore: basesvc.NewTrackedStore[ordermodels.Order](coll, entityOrder, ordermodels.Tracker)}, nil
}

func (s *MongoStore) List(ctx context.Context, org primitive.ObjectID, f ListFilter) ([]ordermodels.Order, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status.status"] = f.Status
	}
	if !f.Quote.IsZero() {
		filter["quote"] = f.Quote
	}
	return s.Page(ctx, org, filter, f.Page, f.Limit)
}

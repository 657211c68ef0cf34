// Package basesvc provides the generic Mongo service the domain stores embed.
package basesvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/common"
	"servicehub/internal/utility"
)

// UpdateData is a partial update.
type UpdateData struct {
	Set   map[string]interface{} `bson:"$set,omitempty"`
	Unset map[string]interface{} `bson:"$unset,omitempty"`
	Push  map[string]interface{} `bson:"$push,omitempty"`
}

// ToUpdateData accepts an *UpdateData, an UpdateData, or a plain document which is
// wrapped in $set.
func ToUpdateData(data interface{}) (*UpdateData, error) {
	switch u := data.(type) {
	case *UpdateData:
		return u, nil
	case UpdateData:
		return &u, nil
	}

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return nil, err
	}
	return &UpdateData{Set: dataMap}, nil
}

// withUpdatedAt stamps updatedAt onto any supported update form: a pipeline, a bson.M
// keyed by operators, or anything ToUpdateData accepts.
func withUpdatedAt(update interface{}, now int64) (interface{}, error) {
	switch u := update.(type) {
	case mongo.Pipeline:
		out := make(mongo.Pipeline, 0, len(u)+1)
		out = append(out, u...)
		return append(out, bson.D{{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}}}), nil
	case bson.M:
		if hasOperator(u) {
			out := make(bson.M, len(u)+1)
			set := bson.M{}
			for k, v := range u {
				if k == "$set" {
					if m, ok := v.(bson.M); ok {
						for sk, sv := range m {
							set[sk] = sv
						}
						continue
					}
				}
				out[k] = v
			}
			set["updatedAt"] = now
			out["$set"] = set
			return out, nil
		}
	}

	updateData, err := ToUpdateData(update)
	if err != nil {
		return nil, common.ErrInvalidFormat
	}
	set := make(map[string]interface{}, len(updateData.Set)+1)
	for k, v := range updateData.Set {
		set[k] = v
	}
	set["updatedAt"] = now
	return &UpdateData{Set: set, Unset: updateData.Unset, Push: updateData.Push}, nil
}

func hasOperator(m bson.M) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// BaseServiceMongoImpl wraps one collection of T.
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{collection: collection}
}

// Collection returns the underlying collection.
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

// InsertOne stamps createdAt/updatedAt, inserts and reads the document back.
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}
	now := time.Now().UnixMilli()
	dataMap["createdAt"] = now
	dataMap["updatedAt"] = now

	result, err := s.collection.InsertOne(ctx, dataMap)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	var created T
	if err := s.collection.FindOne(ctx, bson.M{"_id": result.InsertedID}).Decode(&created); err != nil {
		return zero, common.ConvertMongoError(err)
	}
	return created, nil
}

// FindOne returns common.ErrNotFound when nothing matches.
func (s *BaseServiceMongoImpl[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error) {
	var zero, result T
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.FindOne()
	}

	res := s.collection.FindOne(ctx, filter, opts)
	if err := res.Err(); err != nil {
		return zero, common.ConvertMongoError(err)
	}
	if err := res.Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, common.ErrNotFound
		}
		return zero, common.NewError(common.ErrCodeValidationFormat, "Cannot decode stored document", common.StatusInternalServerError, err.Error())
	}
	return result, nil
}

// Find never returns a nil slice.
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.Find()
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// FindOneById finds by _id.
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.FindOne(ctx, bson.M{"_id": id}, nil)
}

// FindWithPagination pages through filter. page starts at 1; limit defaults to 10.
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error) {
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.Find()
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	opts.SetSkip((page - 1) * limit)
	opts.SetLimit(limit)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	items, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, page, limit, total), nil
}

// FindOneAndUpdate applies update to the first match and returns the document after the update.
// update may be a pipeline, a bson.M of operators, or anything ToUpdateData accepts;
// updatedAt is stamped in every case.
func (s *BaseServiceMongoImpl[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (T, error) {
	var zero T

	doc, err := withUpdatedAt(update, time.Now().UnixMilli())
	if err != nil {
		return zero, err
	}

	var result T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.collection.FindOneAndUpdate(ctx, filter, doc, opts).Decode(&result); err != nil {
		return zero, common.ConvertMongoError(err)
	}
	return result, nil
}

// UpdateById applies data to the document with id.
func (s *BaseServiceMongoImpl[T]) UpdateById(ctx context.Context, id primitive.ObjectID, data interface{}) (T, error) {
	return s.FindOneAndUpdate(ctx, bson.M{"_id": id}, data)
}

// ReplaceOne replaces the first match with data, keeping createdAt, and returns the stored document.
func (s *BaseServiceMongoImpl[T]) ReplaceOne(ctx context.Context, filter interface{}, data T) (T, error) {
	var zero T

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}
	delete(dataMap, "_id")
	dataMap["updatedAt"] = time.Now().UnixMilli()

	var result T
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	if err := s.collection.FindOneAndReplace(ctx, filter, dataMap, opts).Decode(&result); err != nil {
		return zero, common.ConvertMongoError(err)
	}
	return result, nil
}

// UpdateMany applies update to every match and returns the modified count. update takes
// the same forms as FindOneAndUpdate.
func (s *BaseServiceMongoImpl[T]) UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	doc, err := withUpdatedAt(update, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	res, err := s.collection.UpdateMany(ctx, filter, doc)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return res.ModifiedCount, nil
}

// DeleteMany removes every match and returns the count.
func (s *BaseServiceMongoImpl[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return res.DeletedCount, nil
}

// CountDocuments counts matches.
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return n, nil
}

// DocumentExists reports whether anything matches filter.
func (s *BaseServiceMongoImpl[T]) DocumentExists(ctx context.Context, filter interface{}) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return n > 0, nil
}

package notification

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"servicehub/internal/common"
)

// Device is a push target registered by a user.
type Device struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	User       string             `json:"user" bson:"user" index:"single:1"`
	Token      string             `json:"token" bson:"token" index:"unique"`
	DeviceType DeviceType         `json:"deviceType" bson:"deviceType"`
	CreatedAt  int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt  int64              `json:"updatedAt" bson:"updatedAt"`
}

// DeviceStore persists devices.
type DeviceStore interface {
	FindByUser(ctx context.Context, userID string) ([]Device, error)
	Register(ctx context.Context, d Device) (Device, error)
	RemoveToken(ctx context.Context, token string) error
}

// MongoDeviceStore keeps devices in one collection, unique by token.
type MongoDeviceStore struct {
	collection *mongo.Collection
}

func NewMongoDeviceStore(collection *mongo.Collection) *MongoDeviceStore {
	return &MongoDeviceStore{collection: collection}
}

func (s *MongoDeviceStore) FindByUser(ctx context.Context, userID string) ([]Device, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	var out []Device
	if err := cursor.All(ctx, &out); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return out, nil
}

// Register upserts by token, so a token moving to another user or device type follows it.
func (s *MongoDeviceStore) Register(ctx context.Context, d Device) (Device, error) {
	if d.Token == "" || d.User == "" {
		return Device{}, common.ValidationError("user and token are required", nil)
	}
	if !d.DeviceType.Valid() {
		return Device{}, common.ValidationError("unknown device type", map[string]string{"deviceType": string(d.DeviceType)})
	}
	now := time.Now().UnixMilli()
	update := bson.M{
		"$set":         bson.M{"user": d.User, "deviceType": d.DeviceType, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out Device
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"token": d.Token}, update, opts).Decode(&out); err != nil {
		return Device{}, common.ConvertMongoError(err)
	}
	return out, nil
}

func (s *MongoDeviceStore) RemoveToken(ctx context.Context, token string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"token": token}); err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}

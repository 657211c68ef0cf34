package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateScheduleIndexes adds indexes on nested fields that struct tags cannot express.
// Call after CreateIndexes for the visit and job collections.
func CreateScheduleIndexes(ctx context.Context, visits, jobs *mongo.Collection) error {
	if _, err := visits.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// split: open occurrences of a job on or after a date
			Keys: bson.D{
				{Key: "ownerOrganizationId", Value: 1},
				{Key: "job", Value: 1},
				{Key: "isCompleted", Value: 1},
				{Key: "startDate", Value: 1},
			},
			Options: options.Index().SetName("visit_org_job_open_start"),
		},
		{
			Keys: bson.D{
				{Key: "ownerOrganizationId", Value: 1},
				{Key: "status.status", Value: 1},
			},
			Options: options.Index().SetName("visit_org_status"),
		},
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	if _, err := jobs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "client.fullName", Value: 1},
		},
		Options: options.Index().SetName("job_org_client_name"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}
	return nil
}

func isIndexExistsError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// IndexOptionsConflict, IndexKeySpecsConflict
		return cmdErr.Code == 85 || cmdErr.Code == 86
	}
	return false
}

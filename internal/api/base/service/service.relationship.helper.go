package basesvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/common"
	"servicehub/internal/global"
)

// RelationshipCheck names a collection field that may point at a record.
type RelationshipCheck struct {
	CollectionName string
	FieldName      string
	// Extra narrows the match, e.g. to live documents.
	Extra bson.M
	// ErrorMessage may contain one %d for the count.
	ErrorMessage string
	Optional     bool
}

// CheckRelationshipExists fails with a business error when any check finds a document
// referencing recordID.
func CheckRelationshipExists(ctx context.Context, recordID primitive.ObjectID, checks []RelationshipCheck) error {
	for _, check := range checks {
		collection, exists := global.RegistryCollections.Get(check.CollectionName)
		if !exists {
			if check.Optional {
				continue
			}
			return common.NewError(common.ErrCodeInternalServer,
				fmt.Sprintf("Collection %q is not registered", check.CollectionName),
				common.StatusInternalServerError, nil)
		}

		filter := bson.M{check.FieldName: recordID}
		for k, v := range check.Extra {
			filter[k] = v
		}
		count, err := collection.CountDocuments(ctx, filter)
		if err != nil {
			return common.ConvertMongoError(err)
		}
		if count > 0 {
			msg := fmt.Sprintf("Record is referenced by %d document(s) in %s", count, check.CollectionName)
			if check.ErrorMessage != "" {
				msg = fmt.Sprintf(check.ErrorMessage, count)
			}
			return common.NewError(common.ErrCodeBusinessOperation, msg, common.StatusConflict, map[string]string{"id": recordID.Hex()})
		}
	}
	return nil
}

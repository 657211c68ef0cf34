package utility

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/common"
)

// ParseObjectID converts a hex id or returns a validation error naming the field.
func ParseObjectID(field, id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, common.ValidationError("Invalid id for "+field, id)
	}
	return objectID, nil
}

// StringArray2ObjectIDArray converts ids, failing on the first invalid one.
func StringArray2ObjectIDArray(field string, ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := ParseObjectID(field, id)
		if err != nil {
			return nil, err
		}
		out = append(out, objectID)
	}
	return out, nil
}

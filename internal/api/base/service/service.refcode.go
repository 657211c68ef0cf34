package basesvc

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"servicehub/internal/common"
	"servicehub/internal/utility"
)

const refCodeAttempts = 3

// InsertWithRefCode draws a reference code, builds the document around it and inserts it.
// A duplicate-key failure draws a new code and tries again.
func InsertWithRefCode[T any](ctx context.Context, prefix string, now time.Time, random io.Reader, build func(ref string) T, insert func(ctx context.Context, doc T) (T, error)) (T, error) {
	var zero T
	for attempt := 0; attempt < refCodeAttempts; attempt++ {
		ref, err := utility.GenerateRefCode(prefix, now, random)
		if err != nil {
			return zero, err
		}
		doc, err := insert(ctx, build(ref))
		if err == nil || !mongo.IsDuplicateKeyError(err) {
			return doc, err
		}
	}
	return zero, common.NewError(common.ErrCodeBusinessOperation, "Could not allocate a reference code", common.StatusConflict, prefix)
}

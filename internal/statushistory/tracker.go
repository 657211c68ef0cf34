package statushistory

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Tracker names the fields a collection stores its status and history in.
type Tracker[V ~string] struct {
	StatusField  string
	HistoryField string
}

// New returns a tracker for the given field names.
func New[V ~string](statusField, historyField string) Tracker[V] {
	return Tracker[V]{StatusField: statusField, HistoryField: historyField}
}

// Update builds a pipeline update that appends the stored status to the history field and
// then sets next, in one document write. set holds extra fields written in the same update;
// its values are taken literally.
//
// The first stage reads the document as stored, so concurrent transitions each record the
// status they actually replaced.
func (t Tracker[V]) Update(next Entry[V], set bson.M) mongo.Pipeline {
	statusRef := "$" + t.StatusField

	appendStage := bson.D{{Key: "$set", Value: bson.D{{
		Key: t.HistoryField,
		Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$" + t.HistoryField, bson.A{}}}},
			bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{statusRef, false}}},
				bson.A{statusRef},
				bson.A{},
			}}},
		}}},
	}}}}

	fields := bson.D{{Key: t.StatusField, Value: bson.D{{Key: "$literal", Value: next}}}}
	for k, v := range set {
		fields = append(fields, bson.E{Key: k, Value: bson.D{{Key: "$literal", Value: v}}})
	}
	replaceStage := bson.D{{Key: "$set", Value: fields}}

	return mongo.Pipeline{appendStage, replaceStage}
}

// Projection returns a projection of just the status and history fields.
func (t Tracker[V]) Projection() bson.M {
	return bson.M{t.StatusField: 1, t.HistoryField: 1}
}

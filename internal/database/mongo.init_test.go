package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type indexedModel struct {
	OrgID     string `bson:"ownerOrganizationId" index:"single:1;compound:org_ref_unique"`
	RefCode   string `bson:"refCode,omitempty" index:"compound:org_ref_unique"`
	Title     string `bson:"title" index:"text"`
	StartDate string `bson:"startDate" index:"single:-1"`
	Ignored   string `bson:"-" index:"single:1"`
	Plain     string `bson:"plain"`
}

func TestParseIndexTag(t *testing.T) {
	specs := parseIndexTag("single:1;compound:a_b,sparse")
	require.Len(t, specs, 2)
	assert.Equal(t, "1", specs[0]["single"])
	assert.Equal(t, "a_b", specs[1]["compound"])
	_, sparse := specs[1]["sparse"]
	assert.True(t, sparse)
}

func TestBuildIndexModels(t *testing.T) {
	models := buildIndexModels(&indexedModel{})

	byName := map[string]bson.D{}
	unique := map[string]bool{}
	for _, m := range models {
		byName[*m.Options.Name] = m.Keys.(bson.D)
		unique[*m.Options.Name] = m.Options.Unique != nil && *m.Options.Unique
	}

	assert.Equal(t, bson.D{{Key: "ownerOrganizationId", Value: 1}}, byName["ownerOrganizationId_single"])
	assert.Equal(t, bson.D{{Key: "title", Value: "text"}}, byName["title_text"])
	assert.Equal(t, bson.D{{Key: "startDate", Value: -1}}, byName["startDate_single"])
	assert.Equal(t, bson.D{{Key: "ownerOrganizationId", Value: 1}, {Key: "refCode", Value: 1}}, byName["org_ref_unique"])
	assert.True(t, unique["org_ref_unique"])
	assert.Len(t, models, 4)
}

func TestSameKeys(t *testing.T) {
	existing := bson.M{"key": bson.M{"job": int32(1), "startDate": int32(1)}}
	assert.True(t, sameKeys(existing, bson.D{{Key: "job", Value: 1}, {Key: "startDate", Value: 1}}))
	assert.False(t, sameKeys(existing, bson.D{{Key: "job", Value: 1}}))
	assert.False(t, sameKeys(existing, bson.D{{Key: "job", Value: -1}, {Key: "startDate", Value: 1}}))
}

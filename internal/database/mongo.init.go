package database

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"servicehub/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureCollections creates every named collection missing from db.
// Collections must exist before the first transaction writes to them.
func EnsureCollections(ctx context.Context, db *mongo.Database, names []string) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	for _, name := range names {
		if have[name] {
			continue
		}
		logger.WithCollection(name).Info("Collection does not exist, creating")
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

// indexSpec is one index declared by an `index` struct tag.
//
// Tag grammar, entries separated by ';', options by ',':
//
//	index:"single:1"                 ascending single-field index
//	index:"single:-1"                descending
//	index:"unique,sparse"            unique (optionally sparse)
//	index:"text"                     text index
//	index:"ttl:3600"                 TTL index
//	index:"compound:job_start"       member of compound index job_start, in field order
//	index:"compound:org_ref_unique"  compound names ending in _unique are unique
type indexSpec map[string]string

func parseIndexTag(tag string) []indexSpec {
	var out []indexSpec
	for _, part := range strings.Split(tag, ";") {
		spec := indexSpec{}
		for _, sub := range strings.Split(part, ",") {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				continue
			}
			k, v, _ := strings.Cut(sub, ":")
			spec[k] = v
		}
		if len(spec) > 0 {
			out = append(out, spec)
		}
	}
	return out
}

func parseOrder(v string) int {
	if v == "-1" {
		return -1
	}
	return 1
}

// buildIndexModels reads `index` tags from a model struct.
func buildIndexModels(model interface{}) []mongo.IndexModel {
	modelType := reflect.TypeOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	var models []mongo.IndexModel
	var compoundOrder []string
	compound := map[string]bson.D{}
	compoundSparse := map[string]bool{}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		bsonField, _, _ := strings.Cut(field.Tag.Get("bson"), ",")
		if bsonField == "" || bsonField == "-" {
			continue
		}

		for _, spec := range parseIndexTag(tag) {
			if _, ok := spec["text"]; ok {
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: "text"}},
					Options: options.Index().SetName(bsonField + "_text"),
				})
			}
			if order, ok := spec["single"]; ok {
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: parseOrder(order)}},
					Options: options.Index().SetName(bsonField + "_single"),
				})
			}
			if _, ok := spec["unique"]; ok {
				opts := options.Index().SetName(bsonField + "_unique").SetUnique(true)
				if _, sparse := spec["sparse"]; sparse {
					opts.SetSparse(true)
				}
				models = append(models, mongo.IndexModel{Keys: bson.D{{Key: bsonField, Value: 1}}, Options: opts})
			}
			if ttlValue, ok := spec["ttl"]; ok {
				if ttl, err := strconv.Atoi(ttlValue); err == nil {
					models = append(models, mongo.IndexModel{
						Keys:    bson.D{{Key: bsonField, Value: 1}},
						Options: options.Index().SetName(bsonField + "_ttl").SetExpireAfterSeconds(int32(ttl)),
					})
				}
			}
			if group, ok := spec["compound"]; ok {
				if _, seen := compound[group]; !seen {
					compoundOrder = append(compoundOrder, group)
				}
				compound[group] = append(compound[group], bson.E{Key: bsonField, Value: parseOrder(spec["order"])})
				if _, sparse := spec["sparse"]; sparse {
					compoundSparse[group] = true
				}
			}
		}
	}

	for _, group := range compoundOrder {
		opts := options.Index().SetName(group)
		if strings.HasSuffix(group, "_unique") {
			opts.SetUnique(true)
		}
		if compoundSparse[group] {
			opts.SetSparse(true)
		}
		models = append(models, mongo.IndexModel{Keys: compound[group], Options: opts})
	}
	return models
}

// CreateIndexes creates the indexes declared by model's `index` tags on collection.
// Existing indexes with the same name are dropped and recreated when their keys differ.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	log := logger.WithCollection(collection.Name())

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			_ = cursor.Close(ctx)
			return fmt.Errorf("failed to decode index info: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			existing[name] = info
		}
	}
	_ = cursor.Close(ctx)

	for _, m := range buildIndexModels(model) {
		name := *m.Options.Name
		if info, ok := existing[name]; ok {
			if sameKeys(info, m.Keys.(bson.D)) {
				continue
			}
			if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", name, err)
			}
			log.WithField("index", name).Info("Dropped outdated index")
		}
		if _, err := collection.Indexes().CreateOne(ctx, m); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
		log.WithField("index", name).Info("Created index")
	}
	return nil
}

func sameKeys(existing bson.M, keys bson.D) bool {
	existingKeys, ok := existing["key"].(bson.M)
	if !ok || len(existingKeys) != len(keys) {
		return false
	}
	for _, k := range keys {
		v, ok := existingKeys[k.Key]
		if !ok {
			return false
		}
		want, isInt := k.Value.(int)
		if !isInt {
			if v != k.Value {
				return false
			}
			continue
		}
		switch ev := v.(type) {
		case int32:
			if int(ev) != want {
				return false
			}
		case int64:
			if int(ev) != want {
				return false
			}
		case float64:
			if int(ev) != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

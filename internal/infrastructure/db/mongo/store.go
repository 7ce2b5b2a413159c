package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const collectionItems = "items"

// Store implements ports.Store on one collection. Each document is an item
// whose _id is "PK|SK"; GSI1 is a compound index on GSI1PK/GSI1SK, sparse
// because documents without GSI1 attributes never match an index query.
type Store struct {
	col *mongo.Collection
	now func() time.Time
}

var (
	_ ports.Store         = (*Store)(nil)
	_ ports.HealthChecker = (*Store)(nil)
)

func NewStore(db *mongo.Database) *Store {
	return &Store{
		col: db.Collection(collectionItems),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func documentID(key ports.Key) string { return key.PK + "|" + key.SK }

func (s *Store) GetItem(ctx context.Context, key ports.Key) (ports.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bson.M
	err := s.col.FindOne(ctx, bson.M{"_id": documentID(key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo get %s/%s: %w", key.PK, key.SK, err)
	}
	return toItem(doc), nil
}

func (s *Store) PutItem(ctx context.Context, item ports.Item, opts ports.PutOptions) error {
	key := item.Key()
	if key.PK == "" || key.SK == "" {
		return domain.Validationf("item is missing %s or %s", ports.AttrPK, ports.AttrSK)
	}
	doc := bson.M{"_id": documentID(key)}
	for k, v := range item {
		doc[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if opts.IfNotExists {
		if _, err := s.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("put %s/%s: %w", key.PK, key.SK, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("mongo insert %s/%s: %w", key.PK, key.SK, err)
		}
		return nil
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc["_id"]}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace %s/%s: %w", key.PK, key.SK, err)
	}
	return nil
}

// updateDocument builds the $set/$unset/$inc document of a partial update.
func (s *Store) updateDocument(in ports.UpdateInput) bson.M {
	set := bson.M{}
	for name, v := range in.Set {
		if slices.Contains(ports.Immutable, name) {
			continue
		}
		set[name] = v
	}
	if _, ok := set[ports.AttrUpdatedAt]; !ok {
		set[ports.AttrUpdatedAt] = s.now().Format(time.RFC3339Nano)
	}
	unset := bson.M{}
	for _, name := range in.Remove {
		if slices.Contains(ports.Immutable, name) {
			continue
		}
		if _, ok := set[name]; ok {
			continue
		}
		unset[name] = ""
	}

	update := bson.M{"$set": set, "$inc": bson.M{ports.AttrVersion: 1}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *Store) UpdateItem(ctx context.Context, key ports.Key, in ports.UpdateInput) (ports.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": documentID(key)}
	if in.ExpectedVersion > 0 {
		filter[ports.AttrVersion] = in.ExpectedVersion
	}

	var doc bson.M
	err := s.col.FindOneAndUpdate(ctx, filter, s.updateDocument(in),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return toItem(doc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongo update %s/%s: %w", key.PK, key.SK, err)
	}

	// No match: either the item is missing or the version guard failed.
	n, cerr := s.col.CountDocuments(ctx, bson.M{"_id": documentID(key)})
	if cerr != nil {
		return nil, fmt.Errorf("mongo update %s/%s: %w", key.PK, key.SK, cerr)
	}
	if n == 0 {
		return nil, fmt.Errorf("update %s/%s: %w", key.PK, key.SK, domain.ErrNotFound)
	}
	return nil, fmt.Errorf("update %s/%s: %w", key.PK, key.SK, domain.ErrConflict)
}

func (s *Store) DeleteItem(ctx context.Context, key ports.Key) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": documentID(key)}); err != nil {
		return fmt.Errorf("mongo delete %s/%s: %w", key.PK, key.SK, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, in ports.QueryInput) ([]ports.Item, error) {
	filter := queryFilter(ports.AttrPK, ports.AttrSK, in)
	sort := bson.D{{Key: ports.AttrSK, Value: direction(in)}}
	return s.find(ctx, filter, sort, in)
}

func (s *Store) QueryIndex(ctx context.Context, index string, in ports.QueryInput) ([]ports.Item, error) {
	if index != ports.IndexGSI1 {
		return nil, domain.Validationf("unknown index %q", index)
	}
	filter := queryFilter(ports.AttrGSI1PK, ports.AttrGSI1SK, in)
	d := direction(in)
	sort := bson.D{
		{Key: ports.AttrGSI1SK, Value: d},
		{Key: ports.AttrPK, Value: d},
		{Key: ports.AttrSK, Value: d},
	}
	return s.find(ctx, filter, sort, in)
}

func direction(in ports.QueryInput) int {
	if in.Descending {
		return -1
	}
	return 1
}

// queryFilter translates a QueryInput into a filter on the given partition
// and sort key fields. The sort key must exist so index queries stay sparse.
func queryFilter(pkField, skField string, in ports.QueryInput) bson.M {
	sk := bson.M{"$exists": true, "$type": "string"}
	switch {
	case in.SKPrefix != "":
		sk["$regex"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(in.SKPrefix)}
	case in.SKFrom != "" || in.SKTo != "":
		if in.SKFrom != "" {
			sk["$gte"] = in.SKFrom
		}
		if in.SKTo != "" {
			sk["$lte"] = in.SKTo
		}
	}
	return bson.M{pkField: in.PK, skField: sk}
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D, in ports.QueryInput) ([]ports.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(sort)
	if in.Limit > 0 {
		opts.SetLimit(int64(in.Limit))
	}
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo query %s: %w", in.PK, err)
	}
	defer cur.Close(ctx)

	var out []ports.Item
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, toItem(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo query %s: %w", in.PK, err)
	}
	return out, nil
}

// EnsureIndexes creates the primary and GSI1 indexes of the items collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: ports.AttrPK, Value: 1}, {Key: ports.AttrSK, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: ports.AttrGSI1PK, Value: 1}, {Key: ports.AttrGSI1SK, Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	_, err := s.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return s.col.Database().Client().Ping(ctx, nil)
}

// toItem strips _id and converts driver types to the JSON-like values the
// services expect.
func toItem(doc bson.M) ports.Item {
	item := make(ports.Item, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		item[k] = normalize(v)
	}
	return item
}

func normalize(v any) any {
	switch t := v.(type) {
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalize(e)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalize(e)
		}
		return s
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Package mongodb is the Record Store backed by MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/barangay/core"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ core.Store = (*DB)(nil) // interface compliance check

// Open connects to the database described by conf and checks that it answers.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, conf.Database.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return &DB{client: client, db: client.Database(conf.Database.Name)}, nil
}

// EnsureIndexes creates the unique indexes backing the record identifiers.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := map[core.Collection]string{
		core.CollUsers:            "username",
		core.CollResidents:        "residentId",
		core.CollFamilyHeads:      "headId",
		core.CollDocumentRequests: "requestId",
	}
	for coll, field := range unique {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := db.db.Collection(string(coll)).Indexes().CreateOne(ctx, model); err != nil {
			return storeErr("createIndex", coll, err)
		}
	}

	// secondary lookups
	lookups := []struct {
		coll  core.Collection
		field string
	}{
		{core.CollResidents, "familyHeadId"},
		{core.CollDocumentRequests, "residentId"},
		{core.CollUsers, "residentId"},
	}
	for _, l := range lookups {
		model := mongo.IndexModel{Keys: bson.D{{Key: l.field, Value: 1}}}
		if _, err := db.db.Collection(string(l.coll)).Indexes().CreateOne(ctx, model); err != nil {
			return storeErr("createIndex", l.coll, err)
		}
	}
	return nil
}

func (db *DB) FindAll(ctx context.Context, coll core.Collection, out interface{}, opts ...core.FindOptions) error {
	opt := core.MergeFindOptions(opts...)

	findOpts := options.Find()
	if len(opt.Exclude) > 0 {
		proj := bson.D{}
		for _, f := range opt.Exclude {
			proj = append(proj, bson.E{Key: f, Value: 0})
		}
		findOpts.SetProjection(proj)
	}
	if len(opt.Ordering) > 0 {
		sort := bson.D{}
		for _, ord := range opt.Ordering {
			dir := -1
			if ord.Ascending {
				dir = 1
			}
			sort = append(sort, bson.E{Key: ord.Field, Value: dir})
		}
		findOpts.SetSort(sort)
	}
	if opt.Limit > 0 {
		findOpts.SetLimit(opt.Limit)
	}

	cur, err := db.db.Collection(string(coll)).Find(ctx, filterDoc(opt.Filter), findOpts)
	if err != nil {
		return storeErr("find", coll, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return storeErr("find", coll, err)
	}
	return nil
}

func (db *DB) FindOne(ctx context.Context, coll core.Collection, filter core.Filter, out interface{}) error {
	err := db.db.Collection(string(coll)).FindOne(ctx, filterDoc(filter)).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.ErrNotFound
		}
		return storeErr("findOne", coll, err)
	}
	return nil
}

func (db *DB) CountAll(ctx context.Context, coll core.Collection) (int64, error) {
	n, err := db.db.Collection(string(coll)).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, storeErr("count", coll, err)
	}
	return n, nil
}

func (db *DB) InsertOne(ctx context.Context, coll core.Collection, doc interface{}) (string, error) {
	res, err := db.db.Collection(string(coll)).InsertOne(ctx, doc)
	if err != nil {
		return "", storeErr("insert", coll, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		return id.Hex(), nil
	}
	return "", nil
}

func (db *DB) ReplaceOne(ctx context.Context, coll core.Collection, filter core.Filter, doc interface{}) error {
	res, err := db.db.Collection(string(coll)).ReplaceOne(ctx, filterDoc(filter), doc)
	if err != nil {
		return storeErr("replace", coll, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (db *DB) DeleteOne(ctx context.Context, coll core.Collection, filter core.Filter) error {
	res, err := db.db.Collection(string(coll)).DeleteOne(ctx, filterDoc(filter))
	if err != nil {
		return storeErr("delete", coll, err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// PushUnique runs a single conditional $push, so concurrent pushes never overwrite each other.
func (db *DB) PushUnique(ctx context.Context, coll core.Collection, filter core.Filter, field, key string, value interface{}) error {
	raw, err := bson.Marshal(value)
	if err != nil {
		return storeErr("push", coll, err)
	}

	cond := bson.M{}
	for k, v := range filterDoc(filter) {
		cond[k] = v
	}
	cond[field+"."+key] = bson.M{"$ne": bson.Raw(raw).Lookup(key)}

	c := db.db.Collection(string(coll))
	res, err := c.UpdateOne(ctx, cond, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return storeErr("push", coll, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := c.CountDocuments(ctx, filterDoc(filter), options.Count().SetLimit(1))
	if err != nil {
		return storeErr("push", coll, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return errors.Wrapf(core.ErrDuplicateKey, "push %s", coll)
}

func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.client.Ping(ctx, readpref.Primary()); err != nil {
		if errors.Is(err, mongo.ErrClientDisconnected) {
			return storeErr("ping", "", err)
		}
		return &core.StoreError{Op: "ping", Err: err, Unavailable: true}
	}
	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Drop removes every collection of the database. Used by tests.
func (db *DB) Drop(ctx context.Context) error {
	return db.db.Drop(ctx)
}

func filterDoc(f core.Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

func storeErr(op string, coll core.Collection, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(core.ErrDuplicateKey, "%s %s", op, coll)
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return &core.StoreError{Op: op, Collection: coll, Err: core.ErrStoreClosed}
	}
	return &core.StoreError{
		Op:          op,
		Collection:  coll,
		Err:         err,
		Unavailable: mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded),
	}
}

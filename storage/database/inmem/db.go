// Package inmem is a Record Store kept in memory, with the same document semantics as the mongo store.
package inmem

import (
	"bytes"
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
)

var errBadOutput = errors.New("out must be a non-nil pointer")

type (
	DB struct {
		sync.RWMutex
		collections map[core.Collection][]bson.M
		unique      map[core.Collection][]string
		closed      bool
	}
)

var _ core.Store = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		collections: make(map[core.Collection][]bson.M),
		unique: map[core.Collection][]string{
			core.CollUsers:            {"username"},
			core.CollResidents:        {"residentId"},
			core.CollFamilyHeads:      {"headId"},
			core.CollDocumentRequests: {"requestId"},
		},
	}
}

// Reset drops every collection.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.collections = make(map[core.Collection][]bson.M)
}

func (db *DB) FindAll(_ context.Context, coll core.Collection, out interface{}, opts ...core.FindOptions) error {
	opt := core.MergeFindOptions(opts...)
	filter, err := normalize(opt.Filter)
	if err != nil {
		return storeErr("find", coll, err)
	}

	db.RLock()
	if db.closed {
		db.RUnlock()
		return storeErr("find", coll, core.ErrStoreClosed)
	}
	matched := make([]bson.M, 0, len(db.collections[coll]))
	for _, doc := range db.collections[coll] {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	db.RUnlock()

	if len(opt.Ordering) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, ord := range opt.Ordering {
				c := compare(matched[i][ord.Field], matched[j][ord.Field])
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	if opt.Limit > 0 && int64(len(matched)) > opt.Limit {
		matched = matched[:opt.Limit]
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return storeErr("find", coll, errBadOutput)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(matched))
	for _, doc := range matched {
		elem := reflect.New(elemType)
		if err := decode(project(doc, opt.Exclude), elem.Interface()); err != nil {
			return storeErr("find", coll, err)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

func (db *DB) FindOne(_ context.Context, coll core.Collection, filter core.Filter, out interface{}) error {
	f, err := normalize(filter)
	if err != nil {
		return storeErr("findOne", coll, err)
	}

	db.RLock()
	defer db.RUnlock()
	if db.closed {
		return storeErr("findOne", coll, core.ErrStoreClosed)
	}
	for _, doc := range db.collections[coll] {
		if matches(doc, f) {
			if err := decode(doc, out); err != nil {
				return storeErr("findOne", coll, err)
			}
			return nil
		}
	}
	return core.ErrNotFound
}

func (db *DB) CountAll(_ context.Context, coll core.Collection) (int64, error) {
	db.RLock()
	defer db.RUnlock()
	if db.closed {
		return 0, storeErr("count", coll, core.ErrStoreClosed)
	}
	return int64(len(db.collections[coll])), nil
}

func (db *DB) InsertOne(_ context.Context, coll core.Collection, doc interface{}) (string, error) {
	m, err := toM(doc)
	if err != nil {
		return "", storeErr("insert", coll, err)
	}
	id, ok := m["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		m["_id"] = id
	}

	db.Lock()
	defer db.Unlock()
	if db.closed {
		return "", storeErr("insert", coll, core.ErrStoreClosed)
	}
	if db.violatesUnique(coll, m, -1) {
		return "", storeErr("insert", coll, core.ErrDuplicateKey)
	}
	db.collections[coll] = append(db.collections[coll], m)
	return id.Hex(), nil
}

func (db *DB) ReplaceOne(_ context.Context, coll core.Collection, filter core.Filter, doc interface{}) error {
	f, err := normalize(filter)
	if err != nil {
		return storeErr("replace", coll, err)
	}
	m, err := toM(doc)
	if err != nil {
		return storeErr("replace", coll, err)
	}

	db.Lock()
	defer db.Unlock()
	if db.closed {
		return storeErr("replace", coll, core.ErrStoreClosed)
	}
	for i, existing := range db.collections[coll] {
		if !matches(existing, f) {
			continue
		}
		m["_id"] = existing["_id"]
		if db.violatesUnique(coll, m, i) {
			return storeErr("replace", coll, core.ErrDuplicateKey)
		}
		db.collections[coll][i] = m
		return nil
	}
	return core.ErrNotFound
}

func (db *DB) DeleteOne(_ context.Context, coll core.Collection, filter core.Filter) error {
	f, err := normalize(filter)
	if err != nil {
		return storeErr("delete", coll, err)
	}

	db.Lock()
	defer db.Unlock()
	if db.closed {
		return storeErr("delete", coll, core.ErrStoreClosed)
	}
	docs := db.collections[coll]
	for i, doc := range docs {
		if matches(doc, f) {
			db.collections[coll] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (db *DB) PushUnique(_ context.Context, coll core.Collection, filter core.Filter, field, key string, value interface{}) error {
	f, err := normalize(filter)
	if err != nil {
		return storeErr("push", coll, err)
	}
	elem, err := toM(value)
	if err != nil {
		return storeErr("push", coll, err)
	}

	db.Lock()
	defer db.Unlock()
	if db.closed {
		return storeErr("push", coll, core.ErrStoreClosed)
	}
	for i, doc := range db.collections[coll] {
		if !matches(doc, f) {
			continue
		}
		arr, _ := doc[field].(primitive.A)
		for _, item := range arr {
			if m, ok := item.(bson.M); ok && reflect.DeepEqual(m[key], elem[key]) {
				return storeErr("push", coll, core.ErrDuplicateKey)
			}
		}

		// stored documents are shared with readers, so swap in a copy
		updated := make(bson.M, len(doc))
		for k, v := range doc {
			updated[k] = v
		}
		pushed := make(primitive.A, 0, len(arr)+1)
		updated[field] = append(append(pushed, arr...), elem)
		db.collections[coll][i] = updated
		return nil
	}
	return core.ErrNotFound
}

func (db *DB) Ping(context.Context) error {
	db.RLock()
	defer db.RUnlock()
	if db.closed {
		return storeErr("ping", "", core.ErrStoreClosed)
	}
	return nil
}

// Close makes every later operation fail with core.ErrStoreClosed.
func (db *DB) Close(context.Context) error {
	db.Lock()
	defer db.Unlock()
	db.closed = true
	return nil
}

// EnsureIndexes is a no-op: uniqueness is checked on every write.
func (db *DB) EnsureIndexes(context.Context) error { return nil }

// violatesUnique reports whether m collides with another document on a unique field; skip is the index being replaced.
func (db *DB) violatesUnique(coll core.Collection, m bson.M, skip int) bool {
	for _, field := range db.unique[coll] {
		val, ok := m[field]
		if !ok {
			continue
		}
		for i, doc := range db.collections[coll] {
			if i != skip && reflect.DeepEqual(doc[field], val) {
				return true
			}
		}
	}
	return false
}

func storeErr(op string, coll core.Collection, err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return errors.Wrapf(core.ErrDuplicateKey, "%s %s", op, coll)
	}
	return &core.StoreError{Op: op, Collection: coll, Err: err}
}

// toM round-trips v through BSON so that stored values have the types the mongo driver would return.
func toM(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := bson.M{}
	if err := decode(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalize(filter core.Filter) (bson.M, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	return toM(bson.M(filter))
}

// decode unmarshals src (a bson.M or raw BSON bytes) into out, with nested documents as bson.M.
func decode(src interface{}, out interface{}) error {
	if out == nil || reflect.ValueOf(out).Kind() != reflect.Ptr {
		return errBadOutput
	}
	raw, ok := src.([]byte)
	if !ok {
		var err error
		if raw, err = bson.Marshal(src); err != nil {
			return err
		}
	}
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return err
	}
	dec.DefaultDocumentM()
	return dec.Decode(out)
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

// project returns doc without the excluded fields.
func project(doc bson.M, exclude []string) bson.M {
	if len(exclude) == 0 {
		return doc
	}
	cp := make(bson.M, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	for _, f := range exclude {
		delete(cp, f)
	}
	return cp
}

// compare orders two BSON values of the same type; missing values sort first, as in mongo.
func compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return compareInt64(int64(av), int64(bv))
		}
	case int32:
		if bv, ok := b.(int32); ok {
			return compareInt64(int64(av), int64(bv))
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return compareInt64(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok && av != bv {
			if !av {
				return -1
			}
			return 1
		}
		return 0
	case primitive.ObjectID:
		if bv, ok := b.(primitive.ObjectID); ok {
			return bytes.Compare(av[:], bv[:])
		}
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

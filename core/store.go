package core

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collections held by the Record Store.
const (
	CollUsers            Collection = "users"
	CollResidents        Collection = "residents"
	CollFamilyHeads      Collection = "familyheads"
	CollAnnouncements    Collection = "announcements"
	CollEvents           Collection = "events"
	CollDocumentRequests Collection = "documentrequests"
)

// Field names stripped from exports.
const (
	FieldQRCode   = "qrCode"
	FieldPassword = "password"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrStoreClosed is returned by every operation on a closed store; the API stops when it sees it.
	ErrStoreClosed = NewShutdownError("record store closed")
)

type (
	Collection string

	// Filter matches documents whose fields equal all the given values.
	Filter map[string]interface{}

	// Document is a schemaless record, used where the shape of a collection does not matter.
	Document map[string]interface{}

	FindOptions struct {
		Filter   Filter
		Exclude  []string
		Ordering []DBOrdering
		Limit    int64
	}

	// Store is the query surface of the document database.
	// `out` arguments are pointers to a struct (FindOne) or to a slice (FindAll),
	// decoded the way the mongo driver decodes documents.
	Store interface {
		FindAll(ctx context.Context, coll Collection, out interface{}, opts ...FindOptions) error
		FindOne(ctx context.Context, coll Collection, filter Filter, out interface{}) error
		CountAll(ctx context.Context, coll Collection) (int64, error)
		InsertOne(ctx context.Context, coll Collection, doc interface{}) (string, error)
		ReplaceOne(ctx context.Context, coll Collection, filter Filter, doc interface{}) error
		DeleteOne(ctx context.Context, coll Collection, filter Filter) error
		// PushUnique atomically appends value to the array field of the document matching filter.
		// It fails with ErrDuplicateKey when an element of that array has the same key as value.
		PushUnique(ctx context.Context, coll Collection, filter Filter, field, key string, value interface{}) error
		Ping(ctx context.Context) error
		Close(ctx context.Context) error
	}

	// StoreError wraps a failure of the underlying database.
	StoreError struct {
		Op          string
		Collection  Collection
		Err         error
		Unavailable bool
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Exclude returns FindOptions that drop the given fields from every returned document.
func Exclude(fields ...string) FindOptions {
	return FindOptions{Exclude: fields}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable && e.Unavailable
}

// MergeFindOptions folds opts into a single FindOptions.
func MergeFindOptions(opts ...FindOptions) FindOptions {
	var merged FindOptions
	for _, o := range opts {
		if len(o.Filter) > 0 {
			if merged.Filter == nil {
				merged.Filter = make(Filter, len(o.Filter))
			}
			for k, v := range o.Filter {
				merged.Filter[k] = v
			}
		}
		merged.Exclude = append(merged.Exclude, o.Exclude...)
		merged.Ordering = append(merged.Ordering, o.Ordering...)
		if o.Limit > 0 {
			merged.Limit = o.Limit
		}
	}
	return merged
}

// IDFilter matches the document whose _id is the hex ObjectID id. Malformed ids match nothing.
func IDFilter(id string) (Filter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return Filter{"_id": oid}, nil
}

// Package storetest holds the behaviour every core.Store implementation must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
)

type record struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Name     string             `bson:"name"`
	Password string             `bson:"password,omitempty"`
	QRCode   string             `bson:"qrCode,omitempty"`
	Joined   time.Time          `bson:"joined"`
	Tags     []string           `bson:"tags,omitempty"`
}

type (
	guest struct {
		ID   string `bson:"id"`
		Name string `bson:"name"`
	}

	gathering struct {
		ID     primitive.ObjectID `bson:"_id,omitempty"`
		Title  string             `bson:"title"`
		Guests []guest            `bson:"guests"`
	}
)

// Run exercises store; reset must leave it empty.
func Run(t *testing.T, store core.Store, reset func()) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := func(t *testing.T) []record {
		reset()
		recs := []record{
			{Username: "ana", Name: "Ana", Password: "h1", QRCode: "qr1", Joined: base.AddDate(0, 2, 0), Tags: []string{"a"}},
			{Username: "ben", Name: "Ben", Password: "h2", QRCode: "qr2", Joined: base},
			{Username: "cai", Name: "Cai", Password: "h3", Joined: base.AddDate(0, 1, 0)},
		}
		for i := range recs {
			hex, err := store.InsertOne(ctx, core.CollUsers, recs[i])
			require.NoError(t, err)
			recs[i].ID, err = primitive.ObjectIDFromHex(hex)
			require.NoError(t, err)
		}
		return recs
	}

	t.Run("count", func(t *testing.T) {
		seed(t)
		n, err := store.CountAll(ctx, core.CollUsers)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		n, err = store.CountAll(ctx, core.CollEvents)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("find one", func(t *testing.T) {
		recs := seed(t)
		var got record
		require.NoError(t, store.FindOne(ctx, core.CollUsers, core.Filter{"username": "ben"}, &got))
		assert.Equal(t, recs[1], got)

		err := store.FindOne(ctx, core.CollUsers, core.Filter{"username": "nobody"}, &got)
		assert.Equal(t, core.ErrNotFound, err)
	})

	t.Run("find all sorted", func(t *testing.T) {
		seed(t)
		var got []record
		opts := core.FindOptions{Ordering: []core.DBOrdering{{Field: "joined", Ascending: false}}}
		require.NoError(t, store.FindAll(ctx, core.CollUsers, &got, opts))
		require.Len(t, got, 3)
		assert.Equal(t, []string{"ana", "cai", "ben"}, []string{got[0].Username, got[1].Username, got[2].Username})
	})

	t.Run("find all filtered with limit", func(t *testing.T) {
		seed(t)
		var got []record
		opts := core.FindOptions{
			Filter:   core.Filter{"name": "Cai"},
			Ordering: []core.DBOrdering{{Field: "username", Ascending: true}},
			Limit:    1,
		}
		require.NoError(t, store.FindAll(ctx, core.CollUsers, &got, opts))
		require.Len(t, got, 1)
		assert.Equal(t, "cai", got[0].Username)
	})

	t.Run("find all excluding fields", func(t *testing.T) {
		seed(t)
		var docs []core.Document
		require.NoError(t, store.FindAll(ctx, core.CollUsers, &docs, core.Exclude(core.FieldPassword, core.FieldQRCode)))
		require.Len(t, docs, 3)
		for _, doc := range docs {
			assert.NotContains(t, doc, core.FieldPassword)
			assert.NotContains(t, doc, core.FieldQRCode)
			assert.Contains(t, doc, "username")
			assert.False(t, core.DocumentTime(doc, "joined").IsZero())
		}
	})

	t.Run("find all on an empty collection", func(t *testing.T) {
		reset()
		got := make([]record, 0)
		require.NoError(t, store.FindAll(ctx, core.CollAnnouncements, &got))
		assert.Empty(t, got)
	})

	t.Run("duplicate key", func(t *testing.T) {
		seed(t)
		_, err := store.InsertOne(ctx, core.CollUsers, record{Username: "ana", Name: "Other"})
		assert.True(t, errors.Is(err, core.ErrDuplicateKey), "got %v", err)
	})

	t.Run("replace", func(t *testing.T) {
		recs := seed(t)
		upd := recs[0]
		upd.Name = "Ana Maria"
		require.NoError(t, store.ReplaceOne(ctx, core.CollUsers, core.Filter{"username": "ana"}, upd))

		var got record
		require.NoError(t, store.FindOne(ctx, core.CollUsers, core.Filter{"_id": recs[0].ID}, &got))
		assert.Equal(t, "Ana Maria", got.Name)

		err := store.ReplaceOne(ctx, core.CollUsers, core.Filter{"username": "nobody"}, upd)
		assert.Equal(t, core.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		seed(t)
		require.NoError(t, store.DeleteOne(ctx, core.CollUsers, core.Filter{"username": "ben"}))
		n, err := store.CountAll(ctx, core.CollUsers)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		err = store.DeleteOne(ctx, core.CollUsers, core.Filter{"username": "ben"})
		assert.Equal(t, core.ErrNotFound, err)
	})

	t.Run("push unique", func(t *testing.T) {
		reset()
		hex, err := store.InsertOne(ctx, core.CollEvents, gathering{Title: "Fiesta", Guests: []guest{}})
		require.NoError(t, err)
		id, err := primitive.ObjectIDFromHex(hex)
		require.NoError(t, err)
		filter := core.Filter{"_id": id}

		require.NoError(t, store.PushUnique(ctx, core.CollEvents, filter, "guests", "id", guest{ID: "g1", Name: "Ana"}))
		require.NoError(t, store.PushUnique(ctx, core.CollEvents, filter, "guests", "id", guest{ID: "g2", Name: "Ben"}))

		err = store.PushUnique(ctx, core.CollEvents, filter, "guests", "id", guest{ID: "g1", Name: "Again"})
		assert.True(t, errors.Is(err, core.ErrDuplicateKey), "got %v", err)

		err = store.PushUnique(ctx, core.CollEvents, core.Filter{"_id": primitive.NewObjectID()}, "guests", "id", guest{ID: "g3"})
		assert.Equal(t, core.ErrNotFound, err)

		var got gathering
		require.NoError(t, store.FindOne(ctx, core.CollEvents, filter, &got))
		assert.Equal(t, []guest{{ID: "g1", Name: "Ana"}, {ID: "g2", Name: "Ben"}}, got.Guests)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

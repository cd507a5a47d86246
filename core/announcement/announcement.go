// Package announcement manages the notices posted by the barangay office.
package announcement

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
)

// Announcement types
const (
	TypeImportant = "important"
	TypeWarning   = "warning"
	TypeInfo      = "info"
)

var (
	Types = []string{TypeImportant, TypeWarning, TypeInfo}

	typeTag  = "announcementtype"
	typeText = "type must be one of important, warning or info"
)

type (
	Announcement struct {
		ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
		Title    string             `bson:"title" json:"title"`
		Category string             `bson:"category" json:"category"`
		Type     string             `bson:"type" json:"type"`
		Content  string             `bson:"content" json:"content"`
		Date     time.Time          `bson:"date" json:"date"`
	}

	// Input is the payload of the create and update operations.
	Input struct {
		Title    string `json:"title" validate:"required,max=200"`
		Category string `json:"category" validate:"required,max=100"`
		Type     string `json:"type" validate:"required,announcementtype"`
		Content  string `json:"content" validate:"required"`
		Date     string `json:"date" validate:"omitempty,date"`
	}

	Service struct {
		store     core.Store
		validator *core.Validator
		now       func() time.Time
	}
)

// IsValidType reports whether t is a known announcement type.
func IsValidType(t string) bool {
	for _, typ := range Types {
		if t == typ {
			return true
		}
	}
	return false
}

// RegisterValidators registers the announcement validation tags on v.
func RegisterValidators(v *core.Validator) {
	v.RegisterPredicate(typeTag, typeText, IsValidType)
}

func (in *Input) Validate(v *core.Validator) core.ValidationResult {
	in.Title = core.CleanString(in.Title)
	in.Category = core.CleanString(in.Category)
	in.Type = core.CleanString(in.Type, true /* lower */)
	in.Content = core.CleanString(in.Content)
	return v.Check(in)
}

func (in Input) apply(a *Announcement, now time.Time) {
	a.Title = in.Title
	a.Category = in.Category
	a.Type = in.Type
	a.Content = in.Content
	if date, _ := core.ParseOptionalDate(in.Date); date != nil {
		a.Date = *date
	} else if a.Date.IsZero() {
		a.Date = now
	}
}

func NewService(store core.Store, validator *core.Validator) *Service {
	return &Service{
		store:     store,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query returns every announcement, newest first.
func (svc *Service) Query(ctx context.Context) ([]Announcement, error) {
	opts := core.FindOptions{Ordering: []core.DBOrdering{{Field: "date", Ascending: false}}}
	anns := make([]Announcement, 0)
	if err := svc.store.FindAll(ctx, core.CollAnnouncements, &anns, opts); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	return anns, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Announcement, error) {
	filter, err := core.IDFilter(id)
	if err != nil {
		return Announcement{}, err
	}
	var ann Announcement
	if err := svc.store.FindOne(ctx, core.CollAnnouncements, filter, &ann); err != nil {
		return Announcement{}, err
	}
	return ann, nil
}

func (svc *Service) Create(ctx context.Context, in Input) (Announcement, error) {
	if err := in.Validate(svc.validator).Err(); err != nil {
		return Announcement{}, err
	}
	ann := Announcement{ID: primitive.NewObjectID()}
	in.apply(&ann, svc.now())
	if _, err := svc.store.InsertOne(ctx, core.CollAnnouncements, ann); err != nil {
		return Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return ann, nil
}

func (svc *Service) Update(ctx context.Context, id string, in Input) (Announcement, error) {
	ann, err := svc.Get(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	if err := in.Validate(svc.validator).Err(); err != nil {
		return Announcement{}, err
	}
	in.apply(&ann, svc.now())
	if err := svc.store.ReplaceOne(ctx, core.CollAnnouncements, core.Filter{"_id": ann.ID}, ann); err != nil {
		return Announcement{}, errors.Wrap(err, "updating announcement")
	}
	return ann, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	filter, err := core.IDFilter(id)
	if err != nil {
		return err
	}
	return svc.store.DeleteOne(ctx, core.CollAnnouncements, filter)
}

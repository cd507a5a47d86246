// Package event manages community events and their attendee lists.
package event

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
)

var (
	timeTag  = "eventtime"
	timeText = "time must be formatted as HH:MM"

	errAlreadyRegistered = "this attendee is already registered for the event"
)

type (
	Attendee struct {
		ID            string `bson:"id" json:"id" validate:"required,recordid"`
		Name          string `bson:"name" json:"name" validate:"required,max=200"`
		ContactNumber string `bson:"contactNumber,omitempty" json:"contactNumber,omitempty" validate:"max=30"`
	}

	Event struct {
		ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
		Title       string             `bson:"title" json:"title"`
		Description string             `bson:"description" json:"description"`
		Category    string             `bson:"category" json:"category"`
		EventDate   time.Time          `bson:"eventDate" json:"eventDate"`
		Time        string             `bson:"time" json:"time"`
		Location    string             `bson:"location" json:"location"`
		CreatedDate time.Time          `bson:"createdDate" json:"createdDate"`
		Attendees   []Attendee         `bson:"attendees" json:"attendees"`
		QRCode      string             `bson:"qrCode,omitempty" json:"qrCode,omitempty"`
	}

	// Input is the payload of the create and update operations.
	Input struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"required"`
		Category    string `json:"category" validate:"required,max=100"`
		EventDate   string `json:"eventDate" validate:"required,date"`
		Time        string `json:"time" validate:"required,eventtime"`
		Location    string `json:"location" validate:"required,max=255"`
		QRCode      string `json:"qrCode"`
	}

	Service struct {
		store     core.Store
		validator *core.Validator
		now       func() time.Time
	}
)

// IsValidTime reports whether s is a 24h clock time like "14:30".
func IsValidTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// RegisterValidators registers the event validation tags on v.
func RegisterValidators(v *core.Validator) {
	v.RegisterPredicate(timeTag, timeText, IsValidTime)
}

func (in *Input) Validate(v *core.Validator) core.ValidationResult {
	in.Title = core.CleanString(in.Title)
	in.Description = core.CleanString(in.Description)
	in.Category = core.CleanString(in.Category)
	in.Time = core.CleanString(in.Time)
	in.Location = core.CleanString(in.Location)
	return v.Check(in)
}

func (in Input) apply(e *Event) {
	e.Title = in.Title
	e.Description = in.Description
	e.Category = in.Category
	e.EventDate, _ = core.ParseDate(in.EventDate)
	e.Time = in.Time
	e.Location = in.Location
	if in.QRCode != "" {
		e.QRCode = in.QRCode
	}
}

func (a *Attendee) Validate(v *core.Validator) core.ValidationResult {
	a.ID = core.CleanString(a.ID)
	a.Name = core.CleanString(a.Name)
	a.ContactNumber = core.CleanString(a.ContactNumber)
	return v.Check(a)
}

func NewService(store core.Store, validator *core.Validator) *Service {
	return &Service{
		store:     store,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query returns every event, soonest first.
func (svc *Service) Query(ctx context.Context) ([]Event, error) {
	opts := core.FindOptions{Ordering: []core.DBOrdering{{Field: "eventDate", Ascending: true}}}
	events := make([]Event, 0)
	if err := svc.store.FindAll(ctx, core.CollEvents, &events, opts); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	filter, err := core.IDFilter(id)
	if err != nil {
		return Event{}, err
	}
	var evt Event
	if err := svc.store.FindOne(ctx, core.CollEvents, filter, &evt); err != nil {
		return Event{}, err
	}
	if evt.Attendees == nil {
		evt.Attendees = []Attendee{}
	}
	return evt, nil
}

func (svc *Service) Create(ctx context.Context, in Input) (Event, error) {
	if err := in.Validate(svc.validator).Err(); err != nil {
		return Event{}, err
	}
	evt := Event{
		ID:          primitive.NewObjectID(),
		CreatedDate: svc.now(),
		Attendees:   []Attendee{},
	}
	in.apply(&evt)
	if _, err := svc.store.InsertOne(ctx, core.CollEvents, evt); err != nil {
		return Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (svc *Service) Update(ctx context.Context, id string, in Input) (Event, error) {
	evt, err := svc.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if err := in.Validate(svc.validator).Err(); err != nil {
		return Event{}, err
	}
	in.apply(&evt)
	if err := svc.store.ReplaceOne(ctx, core.CollEvents, core.Filter{"_id": evt.ID}, evt); err != nil {
		return Event{}, errors.Wrap(err, "updating event")
	}
	return evt, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	filter, err := core.IDFilter(id)
	if err != nil {
		return err
	}
	return svc.store.DeleteOne(ctx, core.CollEvents, filter)
}

// Register adds att to the attendees of the event. Residents can only register themselves.
func (svc *Service) Register(ctx context.Context, caller auth.Identity, id string, att Attendee) (Event, error) {
	res := att.Validate(svc.validator)
	if !res.Valid {
		return Event{}, res.Err()
	}
	if err := auth.RequireOwnershipOrAdmin(caller, att.ID); err != nil {
		return Event{}, err
	}

	evt, err := svc.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}

	err = svc.store.PushUnique(ctx, core.CollEvents, core.Filter{"_id": evt.ID}, "attendees", "id", att)
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		return Event{}, core.NewValidationError(nil, core.FieldError{Field: "id", Error: errAlreadyRegistered})
	case err != nil:
		return Event{}, errors.Wrap(err, "registering attendee")
	}
	return svc.Get(ctx, id)
}

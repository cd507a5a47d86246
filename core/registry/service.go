package registry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
)

type Service struct {
	store     core.Store
	validator *core.Validator
	now       func() time.Time
}

func NewService(store core.Store, validator *core.Validator) *Service {
	return &Service{
		store:     store,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Residents

var (
	defaultOrdering = []core.DBOrdering{{Field: "lastName", Ascending: true}, {Field: "firstName", Ascending: true}}
	orderingFields  = map[string]bool{
		"firstName": true, "lastName": true, "gender": true, "birthDate": true,
		"registrationDate": true, "residentId": true, "headId": true,
	}
)

// ordering keeps the sortable fields of ords, falling back to lastName, firstName.
func ordering(ords []core.DBOrdering) []core.DBOrdering {
	valid := make([]core.DBOrdering, 0, len(ords))
	for _, ord := range ords {
		if orderingFields[ord.Field] {
			valid = append(valid, ord)
		}
	}
	if len(valid) == 0 {
		return defaultOrdering
	}
	return valid
}

func (svc *Service) QueryResidents(ctx context.Context, filter QueryFilter) ([]Resident, error) {
	opts := core.FindOptions{Ordering: ordering(filter.Ordering)}
	if filter.FamilyHeadID != "" {
		opts.Filter = core.Filter{"familyHeadId": filter.FamilyHeadID}
	}
	residents := make([]Resident, 0)
	if err := svc.store.FindAll(ctx, core.CollResidents, &residents, opts); err != nil {
		return nil, errors.Wrap(err, "querying residents")
	}
	return residents, nil
}

func (svc *Service) GetResident(ctx context.Context, residentID string) (Resident, error) {
	var res Resident
	if err := svc.store.FindOne(ctx, core.CollResidents, core.Filter{"residentId": residentID}, &res); err != nil {
		return Resident{}, err
	}
	return res, nil
}

func (svc *Service) ResidentExists(ctx context.Context, residentID string) (bool, error) {
	if _, err := svc.GetResident(ctx, residentID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *Service) CreateResident(ctx context.Context, nr NewResident) (Resident, error) {
	res := nr.Validate(svc.validator)
	if nr.ResidentID != "" {
		if exists, err := svc.ResidentExists(ctx, nr.ResidentID); err != nil {
			return Resident{}, err
		} else if exists {
			res.Add("residentId", "unique", errResidentIDExists)
		}
	}
	if err := svc.checkFamilyHead(ctx, nr.FamilyHeadID, &res); err != nil {
		return Resident{}, err
	}
	if err := res.Err(); err != nil {
		return Resident{}, err
	}

	resident := Resident{
		ResidentID:   nr.ResidentID,
		FamilyHeadID: nr.FamilyHeadID,
		Type:         TypeResident,
	}
	if resident.ResidentID == "" {
		resident.ResidentID = core.NewRecordID(residentIDPrefix)
	}
	nr.apply(&resident.Person, svc.now())
	resident.ID = primitive.NewObjectID()

	if err := svc.insert(ctx, core.CollResidents, resident, "residentId", errResidentIDExists); err != nil {
		return Resident{}, err
	}
	return resident, nil
}

func (svc *Service) UpdateResident(ctx context.Context, residentID string, ur UpdateResident) (Resident, error) {
	resident, err := svc.GetResident(ctx, residentID)
	if err != nil {
		return Resident{}, err
	}

	res := ur.Validate(svc.validator)
	if err := svc.checkFamilyHead(ctx, ur.FamilyHeadID, &res); err != nil {
		return Resident{}, err
	}
	if err := res.Err(); err != nil {
		return Resident{}, err
	}

	resident.FamilyHeadID = ur.FamilyHeadID
	ur.apply(&resident.Person, svc.now())
	if err := svc.store.ReplaceOne(ctx, core.CollResidents, core.Filter{"residentId": residentID}, resident); err != nil {
		return Resident{}, errors.Wrap(err, "updating resident")
	}
	return resident, nil
}

func (svc *Service) DeleteResident(ctx context.Context, residentID string) error {
	return svc.store.DeleteOne(ctx, core.CollResidents, core.Filter{"residentId": residentID})
}

// Family heads

func (svc *Service) QueryFamilyHeads(ctx context.Context, ords ...core.DBOrdering) ([]FamilyHead, error) {
	opts := core.FindOptions{Ordering: ordering(ords)}
	heads := make([]FamilyHead, 0)
	if err := svc.store.FindAll(ctx, core.CollFamilyHeads, &heads, opts); err != nil {
		return nil, errors.Wrap(err, "querying family heads")
	}
	return heads, nil
}

func (svc *Service) GetFamilyHead(ctx context.Context, headID string) (FamilyHead, error) {
	var head FamilyHead
	if err := svc.store.FindOne(ctx, core.CollFamilyHeads, core.Filter{"headId": headID}, &head); err != nil {
		return FamilyHead{}, err
	}
	return head, nil
}

// Members returns the residents belonging to the family of headID.
func (svc *Service) Members(ctx context.Context, headID string) ([]Resident, error) {
	if _, err := svc.GetFamilyHead(ctx, headID); err != nil {
		return nil, err
	}
	return svc.QueryResidents(ctx, QueryFilter{FamilyHeadID: headID})
}

func (svc *Service) CreateFamilyHead(ctx context.Context, nh NewFamilyHead) (FamilyHead, error) {
	res := nh.Validate(svc.validator)
	if nh.HeadID != "" {
		if _, err := svc.GetFamilyHead(ctx, nh.HeadID); err == nil {
			res.Add("headId", "unique", errHeadIDExists)
		} else if !errors.Is(err, core.ErrNotFound) {
			return FamilyHead{}, err
		}
	}
	if err := res.Err(); err != nil {
		return FamilyHead{}, err
	}

	head := FamilyHead{
		HeadID: nh.HeadID,
		Type:   TypeFamilyHead,
	}
	if head.HeadID == "" {
		head.HeadID = core.NewRecordID(headIDPrefix)
	}
	nh.apply(&head.Person, svc.now())
	head.ID = primitive.NewObjectID()

	if err := svc.insert(ctx, core.CollFamilyHeads, head, "headId", errHeadIDExists); err != nil {
		return FamilyHead{}, err
	}
	return head, nil
}

func (svc *Service) UpdateFamilyHead(ctx context.Context, headID string, uh UpdateFamilyHead) (FamilyHead, error) {
	head, err := svc.GetFamilyHead(ctx, headID)
	if err != nil {
		return FamilyHead{}, err
	}
	if err := uh.Validate(svc.validator).Err(); err != nil {
		return FamilyHead{}, err
	}

	uh.apply(&head.Person, svc.now())
	if err := svc.store.ReplaceOne(ctx, core.CollFamilyHeads, core.Filter{"headId": headID}, head); err != nil {
		return FamilyHead{}, errors.Wrap(err, "updating family head")
	}
	return head, nil
}

func (svc *Service) DeleteFamilyHead(ctx context.Context, headID string) error {
	return svc.store.DeleteOne(ctx, core.CollFamilyHeads, core.Filter{"headId": headID})
}

func (svc *Service) checkFamilyHead(ctx context.Context, headID string, res *core.ValidationResult) error {
	if headID == "" {
		return nil
	}
	if _, err := svc.GetFamilyHead(ctx, headID); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		res.Add("familyHeadId", "exists", errHeadNotFound)
	}
	return nil
}

// insert stores doc, turning duplicate keys into a field error.
func (svc *Service) insert(ctx context.Context, coll core.Collection, doc interface{}, keyField, dupMsg string) error {
	if _, err := svc.store.InsertOne(ctx, coll, doc); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return core.NewValidationError(nil, core.FieldError{Field: keyField, Error: dupMsg})
		}
		return errors.Wrapf(err, "inserting into %s", coll)
	}
	return nil
}

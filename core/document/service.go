package document

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/registry"
)

type (
	ResidentLookup interface {
		GetResident(ctx context.Context, residentID string) (registry.Resident, error)
	}

	Service struct {
		store     core.Store
		residents ResidentLookup
		mail      core.EmailService
		validator *core.Validator
		now       func() time.Time
	}
)

func NewService(store core.Store, residents ResidentLookup, mailSvc core.EmailService, validator *core.Validator) *Service {
	return &Service{
		store:     store,
		residents: residents,
		mail:      mailSvc,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query lists the requests caller may see, newest first: all of them (optionally by status) for admins,
// their own for residents.
func (svc *Service) Query(ctx context.Context, caller auth.Identity, filter QueryFilter) ([]Request, error) {
	f := core.Filter{}
	if caller.IsAdmin() {
		if status := core.CleanString(filter.Status, true /* lower */); status != "" {
			f["status"] = status
		}
	} else {
		if caller.Role != auth.RoleResident || caller.ResidentID == "" {
			return nil, auth.ErrForbidden
		}
		f["residentId"] = caller.ResidentID
	}
	return svc.find(ctx, f)
}

// ByResident lists the requests filed for residentID.
func (svc *Service) ByResident(ctx context.Context, caller auth.Identity, residentID string) ([]Request, error) {
	if err := auth.RequireOwnershipOrAdmin(caller, residentID); err != nil {
		return nil, err
	}
	return svc.find(ctx, core.Filter{"residentId": residentID})
}

func (svc *Service) find(ctx context.Context, filter core.Filter) ([]Request, error) {
	opts := core.FindOptions{
		Filter:   filter,
		Ordering: []core.DBOrdering{{Field: "requestDate", Ascending: false}},
	}
	reqs := make([]Request, 0)
	if err := svc.store.FindAll(ctx, core.CollDocumentRequests, &reqs, opts); err != nil {
		return nil, errors.Wrap(err, "querying document requests")
	}
	return reqs, nil
}

func (svc *Service) get(ctx context.Context, requestID string) (Request, error) {
	var req Request
	if err := svc.store.FindOne(ctx, core.CollDocumentRequests, core.Filter{"requestId": requestID}, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Get returns the request if caller is an admin or the resident it was filed for.
func (svc *Service) Get(ctx context.Context, caller auth.Identity, requestID string) (Request, error) {
	req, err := svc.get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if err := auth.RequireOwnershipOrAdmin(caller, req.ResidentID); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Create files a new pending request. Residents file for themselves; admins for any resident.
func (svc *Service) Create(ctx context.Context, caller auth.Identity, nr NewRequest) (Request, error) {
	res := nr.Validate(svc.validator)
	if !caller.IsAdmin() {
		if nr.ResidentID == "" {
			nr.ResidentID = caller.ResidentID
		}
		if err := auth.RequireOwnershipOrAdmin(caller, nr.ResidentID); err != nil {
			return Request{}, err
		}
	}
	if nr.ResidentID == "" {
		res.Add("residentId", "required", errResidentIDRequired)
	}
	if err := res.Err(); err != nil {
		return Request{}, err
	}

	resident, err := svc.residents.GetResident(ctx, nr.ResidentID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Request{}, core.NewValidationError(nil, core.FieldError{Field: "residentId", Error: errResidentNotFound})
		}
		return Request{}, errors.Wrap(err, "finding resident")
	}
	if nr.ResidentName == "" {
		nr.ResidentName = resident.FullName()
	}

	req := Request{
		ID:                primitive.NewObjectID(),
		RequestID:         core.NewRecordID(requestIDPrefix),
		ResidentID:        nr.ResidentID,
		ResidentName:      nr.ResidentName,
		DocumentType:      nr.DocumentType,
		Purpose:           nr.Purpose,
		AdditionalDetails: nr.AdditionalDetails,
		Status:            StatusPending,
		RequestDate:       svc.now(),
		DeliveryOption:    nr.DeliveryOption,
		ContactEmail:      nr.ContactEmail,
		QRCode:            nr.QRCode,
	}
	if _, err := svc.store.InsertOne(ctx, core.CollDocumentRequests, req); err != nil {
		return Request{}, errors.Wrap(err, "inserting document request")
	}
	return req, nil
}

// UpdateStatus records the processing of a request by an admin and notifies email deliveries.
func (svc *Service) UpdateStatus(ctx context.Context, caller auth.Identity, requestID string, su StatusUpdate) (Request, error) {
	if err := auth.RequireRole(caller, auth.RoleAdmin); err != nil {
		return Request{}, err
	}
	req, err := svc.get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if err := su.Validate(svc.validator).Err(); err != nil {
		return Request{}, err
	}

	now := svc.now()
	req.Status = su.Status
	req.ProcessingNotes = su.ProcessingNotes
	req.ProcessedBy = caller.Username
	req.ProcessingDate = &now
	if err := svc.store.ReplaceOne(ctx, core.CollDocumentRequests, core.Filter{"requestId": requestID}, req); err != nil {
		return Request{}, errors.Wrap(err, "updating document request")
	}

	if req.DeliveryOption == DeliveryEmail && req.ContactEmail != "" {
		svc.notify(req)
	}
	return req, nil
}

func (svc *Service) notify(req Request) {
	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: req.ResidentName, Address: req.ContactEmail}},
		Subject:      fmt.Sprintf("Your %s request is %s", TypeLabel(req.DocumentType), req.Status),
		TemplateName: statusTemplate,
		TemplateData: statusMailData{
			ResidentName:    req.ResidentName,
			RequestID:       req.RequestID,
			DocumentType:    TypeLabel(req.DocumentType),
			Status:          req.Status,
			ProcessingNotes: req.ProcessingNotes,
		},
	})
}

func (svc *Service) Delete(ctx context.Context, requestID string) error {
	return svc.store.DeleteOne(ctx, core.CollDocumentRequests, core.Filter{"requestId": requestID})
}

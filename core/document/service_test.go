package document

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/barangay/assets"
	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/registry"
	emailsvc "github.com/trezcool/barangay/services/email"
	logsvc "github.com/trezcool/barangay/services/logger"
	"github.com/trezcool/barangay/storage/database/inmem"
)

var (
	admin = auth.Identity{Username: "kapitan", Name: "Kapitan", Role: auth.RoleAdmin}
	juan  = auth.Identity{Username: "juan", Role: auth.RoleResident, ResidentID: "RES-0001"}
	maria = auth.Identity{Username: "maria", Role: auth.RoleResident, ResidentID: "RES-0002"}
)

type fixture struct {
	svc  *Service
	mail *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()
	require.NoError(t, core.ParseEmailTemplates(assets.FS, logger, true))

	v := core.NewValidator()
	registry.RegisterValidators(v)
	RegisterValidators(v)

	db := inmem.Open()
	reg := registry.NewService(db, v)
	for _, nr := range []registry.NewResident{
		{ResidentID: "RES-0001", PersonInput: registry.PersonInput{FirstName: "Juan", LastName: "Dela Cruz", Gender: registry.GenderMale}},
		{ResidentID: "RES-0002", PersonInput: registry.PersonInput{FirstName: "Maria", LastName: "Clara", Gender: registry.GenderFemale}},
	} {
		_, err := reg.CreateResident(context.Background(), nr)
		require.NoError(t, err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	svc := NewService(db, reg, mailSvc, v)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	return fixture{svc: svc, mail: mailSvc}
}

func newRequest(residentID, delivery, email string) NewRequest {
	return NewRequest{
		ResidentID:     residentID,
		DocumentType:   TypeClearance,
		Purpose:        "Employment",
		DeliveryOption: delivery,
		ContactEmail:   email,
	}
}

func TestService_Create(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		caller     auth.Identity
		req        NewRequest
		wantErr    error
		wantFields map[string]string
		wantOwner  string
	}{
		{name: "resident files for themself", caller: juan, req: newRequest("", DeliveryPickup, ""), wantOwner: "RES-0001"},
		{name: "resident files for someone else", caller: juan, req: newRequest("RES-0002", DeliveryPickup, ""), wantErr: auth.ErrForbidden},
		{name: "admin files for a resident", caller: admin, req: newRequest("RES-0002", DeliveryPickup, ""), wantOwner: "RES-0002"},
		{name: "admin must name the resident", caller: admin, req: newRequest("", DeliveryPickup, ""), wantFields: map[string]string{"residentId": errResidentIDRequired}},
		{name: "unknown resident", caller: admin, req: newRequest("RES-9999", DeliveryPickup, ""), wantFields: map[string]string{"residentId": errResidentNotFound}},
		{name: "email delivery needs an address", caller: juan, req: newRequest("", DeliveryEmail, ""), wantFields: map[string]string{"contactEmail": errEmailRequired}},
		{
			name:       "bad enums",
			caller:     juan,
			req:        NewRequest{DocumentType: "passport", Purpose: "Travel", DeliveryOption: "drone"},
			wantFields: map[string]string{"documentType": typeText, "deliveryOption": deliveryText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fx.svc.Create(ctx, tt.caller, tt.req)
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.wantFields != nil:
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				flds := make(map[string]string)
				for _, f := range vErr.Fields {
					flds[f.Field] = f.Error
				}
				assert.Equal(t, tt.wantFields, flds)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantOwner, got.ResidentID)
				assert.Equal(t, StatusPending, got.Status)
				assert.Regexp(t, `^REQ-[0-9A-F]{8}$`, got.RequestID)
				assert.NotEmpty(t, got.ResidentName)
			}
		})
	}
}

func TestService_Visibility(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	juanReq, err := fx.svc.Create(ctx, juan, newRequest("", DeliveryPickup, ""))
	require.NoError(t, err)
	mariaReq, err := fx.svc.Create(ctx, maria, newRequest("", DeliveryPickup, ""))
	require.NoError(t, err)
	_, err = fx.svc.UpdateStatus(ctx, admin, mariaReq.RequestID, StatusUpdate{Status: StatusApproved})
	require.NoError(t, err)

	ids := func(reqs []Request) []string {
		out := make([]string, 0, len(reqs))
		for _, r := range reqs {
			out = append(out, r.RequestID)
		}
		return out
	}

	all, err := fx.svc.Query(ctx, admin, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{mariaReq.RequestID, juanReq.RequestID}, ids(all), "newest first")

	approved, err := fx.svc.Query(ctx, admin, QueryFilter{Status: "Approved"})
	require.NoError(t, err)
	assert.Equal(t, []string{mariaReq.RequestID}, ids(approved))

	own, err := fx.svc.Query(ctx, juan, QueryFilter{Status: StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, []string{juanReq.RequestID}, ids(own), "residents only see their own requests")

	_, err = fx.svc.Get(ctx, juan, mariaReq.RequestID)
	assert.True(t, errors.Is(err, auth.ErrForbidden))
	got, err := fx.svc.Get(ctx, juan, juanReq.RequestID)
	require.NoError(t, err)
	assert.Equal(t, juanReq.RequestID, got.RequestID)

	_, err = fx.svc.ByResident(ctx, juan, "RES-0002")
	assert.True(t, errors.Is(err, auth.ErrForbidden))
	byMaria, err := fx.svc.ByResident(ctx, admin, "RES-0002")
	require.NoError(t, err)
	assert.Equal(t, []string{mariaReq.RequestID}, ids(byMaria))

	_, err = fx.svc.Get(ctx, admin, "REQ-NOPE")
	assert.Equal(t, core.ErrNotFound, err)
}

func TestService_UpdateStatus(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	emailReq, err := fx.svc.Create(ctx, juan, newRequest("", DeliveryEmail, " Juan@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", emailReq.ContactEmail)
	pickupReq, err := fx.svc.Create(ctx, maria, newRequest("", DeliveryPickup, "maria@example.com"))
	require.NoError(t, err)

	_, err = fx.svc.UpdateStatus(ctx, juan, emailReq.RequestID, StatusUpdate{Status: StatusApproved})
	assert.True(t, errors.Is(err, auth.ErrForbidden))

	_, err = fx.svc.UpdateStatus(ctx, admin, emailReq.RequestID, StatusUpdate{Status: "lost"})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	upd, err := fx.svc.UpdateStatus(ctx, admin, emailReq.RequestID, StatusUpdate{Status: StatusCompleted, ProcessingNotes: "Ready for release"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, upd.Status)
	assert.Equal(t, "kapitan", upd.ProcessedBy)
	require.NotNil(t, upd.ProcessingDate)

	_, err = fx.svc.UpdateStatus(ctx, admin, pickupReq.RequestID, StatusUpdate{Status: StatusRejected})
	require.NoError(t, err)

	sent := fx.mail.SentMessages()
	require.Len(t, sent, 1, "only email deliveries are notified")
	assert.Equal(t, "juan@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, emailReq.RequestID)
	assert.Contains(t, sent[0].TextContent, "Barangay Clearance")
	assert.Contains(t, sent[0].TextContent, "Ready for release")
	assert.Contains(t, sent[0].HTMLContent, "completed")

	require.NoError(t, fx.svc.Delete(ctx, pickupReq.RequestID))
	assert.Equal(t, core.ErrNotFound, fx.svc.Delete(ctx, pickupReq.RequestID))
}

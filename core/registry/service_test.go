package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/storage/database/inmem"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) *Service {
	v := core.NewValidator()
	RegisterValidators(v)
	svc := NewService(inmem.Open(), v)
	svc.now = func() time.Time { return now }
	return svc
}

func person(first, last, gender string) PersonInput {
	return PersonInput{FirstName: first, LastName: last, Gender: gender}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	flds := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestService_CreateResident(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	head, err := svc.CreateFamilyHead(ctx, NewFamilyHead{PersonInput: person("Jose", "Rizal", GenderMale)})
	require.NoError(t, err)
	assert.Regexp(t, `^FH-[0-9A-F]{8}$`, head.HeadID)
	assert.Equal(t, TypeFamilyHead, head.Type)

	tests := []struct {
		name       string
		in         NewResident
		wantFields map[string]string
	}{
		{
			name: "generated id",
			in:   NewResident{FamilyHeadID: head.HeadID, PersonInput: person(" Juan ", "Dela Cruz", GenderMale)},
		},
		{
			name: "given id and dates",
			in: NewResident{ResidentID: "RES-0001", PersonInput: PersonInput{
				FirstName: "Maria", LastName: "Clara", Gender: GenderFemale,
				BirthDate: "1990-02-14", RegistrationDate: "2023-11-05T10:00:00+08:00",
			}},
		},
		{
			name:       "duplicate id",
			in:         NewResident{ResidentID: "RES-0001", PersonInput: person("Pedro", "Penduko", GenderMale)},
			wantFields: map[string]string{"residentId": errResidentIDExists},
		},
		{
			name:       "unknown family head",
			in:         NewResident{FamilyHeadID: "FH-NOPE", PersonInput: person("Pedro", "Penduko", GenderMale)},
			wantFields: map[string]string{"familyHeadId": errHeadNotFound},
		},
		{
			name:       "bad gender and date",
			in:         NewResident{PersonInput: PersonInput{FirstName: "Pedro", LastName: "Penduko", Gender: "male", BirthDate: "14/02/1990"}},
			wantFields: map[string]string{"gender": genderText, "birthDate": "must be a date formatted as YYYY-MM-DD"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.CreateResident(ctx, tt.in)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, fieldErrors(t, err))
				return
			}
			require.NoError(t, err)
			got, err := svc.GetResident(ctx, res.ResidentID)
			require.NoError(t, err)
			assert.Equal(t, res, got)
			assert.Equal(t, TypeResident, got.Type)
		})
	}

	maria, err := svc.GetResident(ctx, "RES-0001")
	require.NoError(t, err)
	require.NotNil(t, maria.BirthDate)
	assert.Equal(t, time.Date(1990, 2, 14, 0, 0, 0, 0, time.UTC), *maria.BirthDate)
	assert.Equal(t, time.Date(2023, 11, 5, 2, 0, 0, 0, time.UTC), maria.RegistrationDate)

	members, err := svc.Members(ctx, head.HeadID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Juan", members[0].FirstName)
	assert.Equal(t, now, members[0].RegistrationDate)
}

func TestService_QueryResidents(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	for _, p := range []PersonInput{
		person("Maria", "Santos", GenderFemale),
		person("Ana", "Santos", GenderFemale),
		person("Zed", "Abad", GenderOther),
	} {
		_, err := svc.CreateResident(ctx, NewResident{PersonInput: p})
		require.NoError(t, err)
	}

	residents, err := svc.QueryResidents(ctx, QueryFilter{})
	require.NoError(t, err)
	names := make([]string, 0, len(residents))
	for _, r := range residents {
		names = append(names, r.FullName())
	}
	assert.Equal(t, []string{"Zed Abad", "Ana Santos", "Maria Santos"}, names)

	byFirst, err := svc.QueryResidents(ctx, QueryFilter{Ordering: []core.DBOrdering{{Field: "password"}, {Field: "firstName", Ascending: false}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed", "Maria", "Ana"}, []string{byFirst[0].FirstName, byFirst[1].FirstName, byFirst[2].FirstName})

	none, err := svc.QueryResidents(ctx, QueryFilter{FamilyHeadID: "FH-NOPE"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	head, err := svc.CreateFamilyHead(ctx, NewFamilyHead{HeadID: "FH-0001", PersonInput: person("Jose", "Rizal", GenderMale)})
	require.NoError(t, err)
	_, err = svc.CreateFamilyHead(ctx, NewFamilyHead{HeadID: "FH-0001", PersonInput: person("Andres", "Bonifacio", GenderMale)})
	assert.Equal(t, map[string]string{"headId": errHeadIDExists}, fieldErrors(t, err))

	res, err := svc.CreateResident(ctx, NewResident{PersonInput: person("Juan", "Dela Cruz", GenderMale)})
	require.NoError(t, err)

	upd, err := svc.UpdateResident(ctx, res.ResidentID, UpdateResident{FamilyHeadID: head.HeadID, PersonInput: person("Juan", "Dela Cruz Jr.", GenderMale)})
	require.NoError(t, err)
	assert.Equal(t, res.RegistrationDate, upd.RegistrationDate, "the registration date is kept")
	assert.Equal(t, res.ID, upd.ID)

	members, err := svc.Members(ctx, head.HeadID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Dela Cruz Jr.", members[0].LastName)

	updHead, err := svc.UpdateFamilyHead(ctx, head.HeadID, UpdateFamilyHead{PersonInput: person("José", "Rizal", GenderMale)})
	require.NoError(t, err)
	assert.Equal(t, "José", updHead.FirstName)

	_, err = svc.UpdateResident(ctx, "RES-NOPE", UpdateResident{PersonInput: person("X", "Y", GenderOther)})
	assert.Equal(t, core.ErrNotFound, err)

	require.NoError(t, svc.DeleteResident(ctx, res.ResidentID))
	assert.Equal(t, core.ErrNotFound, svc.DeleteResident(ctx, res.ResidentID))
	require.NoError(t, svc.DeleteFamilyHead(ctx, head.HeadID))
	_, err = svc.Members(ctx, head.HeadID)
	assert.Equal(t, core.ErrNotFound, err)

	exists, err := svc.ResidentExists(ctx, res.ResidentID)
	require.NoError(t, err)
	assert.False(t, exists)
}

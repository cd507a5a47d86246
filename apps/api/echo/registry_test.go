package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/registry"
)

func residentIDs(t *testing.T, body []byte) []string {
	t.Helper()
	var residents []registry.Resident
	require.NoError(t, json.Unmarshal(body, &residents), string(body))
	ids := make([]string, 0, len(residents))
	for _, r := range residents {
		ids = append(ids, r.ResidentID)
	}
	return ids
}

func Test_registryApi_residents(t *testing.T) {
	resetDB(t)
	createResident(t, "RES-0001", "Juan", "Dela Cruz", registry.GenderMale)
	createResident(t, "RES-0002", "Maria", "Clara", registry.GenderFemale)
	createResident(t, "RES-0003", "Andres", "Bonifacio", registry.GenderMale)
	adminToken := getToken(t, createUser(t, "kapitan", auth.RoleAdmin, ""))
	juanToken := getToken(t, createUser(t, "juan", auth.RoleResident, "RES-0001"))

	tests := []httpTest{
		{name: "auth required", path: "/api/residents", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", path: "/api/residents", token: juanToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly)},
		{name: "own record", path: "/api/residents/RES-0001", token: juanToken, wantCode: http.StatusOK},
		{name: "someone else's record", path: "/api/residents/RES-0002", token: juanToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotOwner)},
		{name: "admin reads any record", path: "/api/residents/RES-0002", token: adminToken, wantCode: http.StatusOK},
		{name: "unknown record", path: "/api/residents/RES-0404", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Resident not found"})},
		{
			name: "residents cannot create", method: http.MethodPost, path: "/api/residents", token: juanToken,
			body:     marchallObj(t, registry.NewResident{PersonInput: registry.PersonInput{FirstName: "A", LastName: "B", Gender: registry.GenderMale}}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly),
		},
		{
			name: "invalid gender", method: http.MethodPost, path: "/api/residents", token: adminToken,
			body:     marchallObj(t, registry.NewResident{PersonInput: registry.PersonInput{FirstName: "A", LastName: "B", Gender: "m"}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"gender": "gender must be one of Male, Female or Other"}),
		},
		{
			name: "duplicate id", method: http.MethodPost, path: "/api/residents", token: adminToken,
			body:     marchallObj(t, registry.NewResident{ResidentID: "RES-0001", PersonInput: registry.PersonInput{FirstName: "A", LastName: "B", Gender: registry.GenderOther}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"residentId": "a resident with this ID already exists"}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("list ordering", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/residents", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"RES-0003", "RES-0002", "RES-0001"}, residentIDs(t, rec.Body.Bytes()))

		rec = do(http.MethodGet, "/api/residents?ordering=-firstName", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"RES-0002", "RES-0001", "RES-0003"}, residentIDs(t, rec.Body.Bytes()))
	})

	t.Run("create, update and delete", func(t *testing.T) {
		rec := do(http.MethodPost, "/api/residents", adminToken, marchallObj(t, registry.NewResident{
			ResidentID:  "RES-0004",
			PersonInput: registry.PersonInput{FirstName: "Gabriela", LastName: "Silang", Gender: registry.GenderFemale, BirthDate: "1731-03-19"},
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created registry.Resident
		unmarshal(t, rec, &created)
		assert.Equal(t, registry.TypeResident, created.Type)
		require.NotNil(t, created.BirthDate)

		rec = do(http.MethodPut, "/api/residents/RES-0004", adminToken, marchallObj(t, registry.UpdateResident{
			PersonInput: registry.PersonInput{FirstName: "Gabriela", LastName: "Silang-Cariño", Gender: registry.GenderFemale},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated registry.Resident
		unmarshal(t, rec, &updated)
		assert.Equal(t, "RES-0004", updated.ResidentID)
		assert.Equal(t, "Silang-Cariño", updated.LastName)

		rec = do(http.MethodDelete, "/api/residents/RES-0004", adminToken)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Resident deleted successfully"}`, rec.Body.String())

		rec = do(http.MethodDelete, "/api/residents/RES-0004", adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_registryApi_familyHeads(t *testing.T) {
	resetDB(t)
	adminToken := getToken(t, createUser(t, "kapitan", auth.RoleAdmin, ""))
	createResident(t, "RES-0001", "Juan", "Dela Cruz", registry.GenderMale)
	juanToken := getToken(t, createUser(t, "juan", auth.RoleResident, "RES-0001"))

	rec := do(http.MethodPost, "/api/familyHeads", adminToken, marchallObj(t, registry.NewFamilyHead{
		HeadID:      "FH-0001",
		PersonInput: registry.PersonInput{FirstName: "Jose", LastName: "Rizal", Gender: registry.GenderMale},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(http.MethodPost, "/api/residents", adminToken, marchallObj(t, registry.NewResident{
		ResidentID:   "RES-0002",
		FamilyHeadID: "FH-0001",
		PersonInput:  registry.PersonInput{FirstName: "Paciano", LastName: "Rizal", Gender: registry.GenderMale},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []httpTest{
		{name: "admin required", path: "/api/familyHeads", token: juanToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly)},
		{name: "admin required on detail", path: "/api/familyHeads/FH-0001", token: juanToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly)},
		{name: "list", path: "/api/familyHeads", token: adminToken, wantCode: http.StatusOK},
		{name: "detail", path: "/api/familyHeads/FH-0001", token: adminToken, wantCode: http.StatusOK},
		{name: "unknown", path: "/api/familyHeads/FH-0404/members", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Family head not found"})},
		{
			name: "unknown family head on resident", method: http.MethodPost, path: "/api/residents", token: adminToken,
			body:     marchallObj(t, registry.NewResident{FamilyHeadID: "FH-0404", PersonInput: registry.PersonInput{FirstName: "A", LastName: "B", Gender: registry.GenderMale}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"familyHeadId": "family head not found"}),
		},
	}
	runHTTPTests(t, tests)

	rec = do(http.MethodGet, "/api/familyHeads/FH-0001/members", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"RES-0002"}, residentIDs(t, rec.Body.Bytes()))

	rec = do(http.MethodGet, "/api/residents?familyHeadId=FH-0001", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"RES-0002"}, residentIDs(t, rec.Body.Bytes()))

	rec = do(http.MethodDelete, "/api/familyHeads/FH-0001", adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Family head deleted successfully"}`, rec.Body.String())
}

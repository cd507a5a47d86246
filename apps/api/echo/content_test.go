package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/barangay/core/announcement"
	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/document"
	"github.com/trezcool/barangay/core/event"
	"github.com/trezcool/barangay/core/registry"
)

func Test_announcementApi(t *testing.T) {
	resetDB(t)
	adminToken := getToken(t, createUser(t, "kapitan", auth.RoleAdmin, ""))
	createResident(t, "RES-0001", "Juan", "Dela Cruz", registry.GenderMale)
	juanToken := getToken(t, createUser(t, "juan", auth.RoleResident, "RES-0001"))

	post := func(title, date string) announcement.Announcement {
		rec := do(http.MethodPost, "/api/announcements", adminToken, marchallObj(t, announcement.Input{
			Title: title, Category: "General", Type: "INFO", Content: "Details", Date: date,
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var ann announcement.Announcement
		unmarshal(t, rec, &ann)
		return ann
	}
	older := post("Clean-up drive", "2024-01-10")
	newer := post("Fiesta", "2024-05-15")
	assert.Equal(t, announcement.TypeInfo, newer.Type)

	tests := []httpTest{
		{name: "auth required", path: "/api/announcements", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "residents cannot post", method: http.MethodPost, path: "/api/announcements", token: juanToken,
			body:     marchallObj(t, announcement.Input{Title: "x", Category: "x", Type: "info", Content: "x"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly),
		},
		{
			name: "invalid type", method: http.MethodPost, path: "/api/announcements", token: adminToken,
			body:     marchallObj(t, announcement.Input{Title: "x", Category: "x", Type: "urgent", Content: "x"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"type": "type must be one of important, warning or info"}),
		},
		{name: "malformed id", path: "/api/announcements/nope", token: juanToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Announcement not found"})},
		{name: "residents read", path: "/api/announcements/" + older.ID.Hex(), token: juanToken, wantCode: http.StatusOK},
	}
	runHTTPTests(t, tests)

	rec := do(http.MethodGet, "/api/announcements", juanToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var anns []announcement.Announcement
	unmarshal(t, rec, &anns)
	require.Len(t, anns, 2)
	assert.Equal(t, []string{"Fiesta", "Clean-up drive"}, []string{anns[0].Title, anns[1].Title}, "newest first")

	rec = do(http.MethodPut, "/api/announcements/"+older.ID.Hex(), adminToken, marchallObj(t, announcement.Input{
		Title: "Clean-up drive (moved)", Category: "General", Type: "warning", Content: "Details",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upd announcement.Announcement
	unmarshal(t, rec, &upd)
	assert.Equal(t, older.Date, upd.Date, "the date is kept when none is given")

	rec = do(http.MethodDelete, "/api/announcements/"+older.ID.Hex(), adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(http.MethodDelete, "/api/announcements/"+older.ID.Hex(), adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_eventApi(t *testing.T) {
	resetDB(t)
	adminToken := getToken(t, createUser(t, "kapitan", auth.RoleAdmin, ""))
	createResident(t, "RES-0001", "Juan", "Dela Cruz", registry.GenderMale)
	createResident(t, "RES-0002", "Maria", "Clara", registry.GenderFemale)
	juanToken := getToken(t, createUser(t, "juan", auth.RoleResident, "RES-0001"))

	rec := do(http.MethodPost, "/api/events", adminToken, marchallObj(t, event.Input{
		Title: "Medical mission", Description: "Free check-ups", Category: "Health",
		EventDate: "2024-07-01", Time: "08:30", Location: "Covered court",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var evt event.Event
	unmarshal(t, rec, &evt)
	attendeesPath := "/api/events/" + evt.ID.Hex() + "/attendees"

	tests := []httpTest{
		{
			name: "invalid time", method: http.MethodPost, path: "/api/events", token: adminToken,
			body: marchallObj(t, event.Input{
				Title: "x", Description: "x", Category: "x", EventDate: "2024-07-01", Time: "25:00", Location: "x",
			}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"time": "time must be formatted as HH:MM"}),
		},
		{
			name: "residents cannot edit", method: http.MethodDelete, path: "/api/events/" + evt.ID.Hex(), token: juanToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly),
		},
		{
			name: "register someone else", method: http.MethodPost, path: attendeesPath, token: juanToken,
			body:     marchallObj(t, event.Attendee{ID: "RES-0002", Name: "Maria Clara"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotOwner),
		},
		{
			name: "register self", method: http.MethodPost, path: attendeesPath, token: juanToken,
			body:     marchallObj(t, event.Attendee{ID: "RES-0001", Name: "Juan Dela Cruz"}),
			wantCode: http.StatusOK,
		},
		{
			name: "register twice", method: http.MethodPost, path: attendeesPath, token: juanToken,
			body:     marchallObj(t, event.Attendee{ID: "RES-0001", Name: "Juan Dela Cruz"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"id": "this attendee is already registered for the event"}),
		},
		{
			name: "admin registers anyone", method: http.MethodPost, path: attendeesPath, token: adminToken,
			body:     marchallObj(t, event.Attendee{ID: "RES-0002", Name: "Maria Clara"}),
			wantCode: http.StatusOK,
		},
		{
			name: "attendee id is not taken from the path", method: http.MethodPost, path: attendeesPath, token: adminToken,
			body:     []byte(`{"name":"No ID"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"id": "this field is required"}),
		},
		{
			name: "unknown event", method: http.MethodPost, path: "/api/events/0123456789abcdef01234567/attendees", token: juanToken,
			body:     marchallObj(t, event.Attendee{ID: "RES-0001", Name: "Juan Dela Cruz"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Event not found"}),
		},
	}
	runHTTPTests(t, tests)

	rec = do(http.MethodGet, "/api/events/"+evt.ID.Hex(), juanToken)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshal(t, rec, &evt)
	require.Len(t, evt.Attendees, 2)
	assert.Equal(t, "RES-0001", evt.Attendees[0].ID)
	assert.Equal(t, "RES-0002", evt.Attendees[1].ID)
}

func Test_documentApi(t *testing.T) {
	resetDB(t)
	admin := createUser(t, "kapitan", auth.RoleAdmin, "")
	adminToken := getToken(t, admin)
	createResident(t, "RES-0001", "Juan", "Dela Cruz", registry.GenderMale)
	createResident(t, "RES-0002", "Maria", "Clara", registry.GenderFemale)
	juanToken := getToken(t, createUser(t, "juan", auth.RoleResident, "RES-0001"))
	mariaToken := getToken(t, createUser(t, "maria", auth.RoleResident, "RES-0002"))

	file := func(token string, nr document.NewRequest) document.Request {
		t.Helper()
		rec := do(http.MethodPost, "/api/documents", token, marchallObj(t, nr))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var req document.Request
		unmarshal(t, rec, &req)
		return req
	}
	juanReq := file(juanToken, document.NewRequest{
		DocumentType: document.TypeClearance, Purpose: "Employment",
		DeliveryOption: document.DeliveryEmail, ContactEmail: "juan@example.com",
	})
	assert.Equal(t, "RES-0001", juanReq.ResidentID, "residents file for themselves")
	assert.Equal(t, "Juan Dela Cruz", juanReq.ResidentName)
	assert.Equal(t, document.StatusPending, juanReq.Status)
	mariaReq := file(adminToken, document.NewRequest{
		ResidentID: "RES-0002", DocumentType: document.TypeIndigency, Purpose: "Scholarship", DeliveryOption: document.DeliveryPickup,
	})

	tests := []httpTest{
		{
			name: "filing for someone else", method: http.MethodPost, path: "/api/documents", token: juanToken,
			body: marchallObj(t, document.NewRequest{
				ResidentID: "RES-0002", DocumentType: document.TypeResidency, Purpose: "x", DeliveryOption: document.DeliveryPickup,
			}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotOwner),
		},
		{
			name: "email delivery needs an address", method: http.MethodPost, path: "/api/documents", token: juanToken,
			body:     marchallObj(t, document.NewRequest{DocumentType: document.TypeResidency, Purpose: "x", DeliveryOption: document.DeliveryEmail}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"contactEmail": "contactEmail is required for email delivery"}),
		},
		{name: "own request", path: "/api/documents/" + juanReq.RequestID, token: juanToken, wantCode: http.StatusOK},
		{name: "someone else's request", path: "/api/documents/" + mariaReq.RequestID, token: juanToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotOwner)},
		{name: "unknown request", path: "/api/documents/REQ-NOPE", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Document request not found"})},
		{name: "someone else's list", path: "/api/documents/resident/RES-0002", token: juanToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotOwner)},
		{
			name: "residents cannot process", method: http.MethodPut, path: "/api/documents/" + juanReq.RequestID + "/status", token: juanToken,
			body: marchallObj(t, document.StatusUpdate{Status: document.StatusApproved}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminOnly),
		},
		{
			name: "invalid status", method: http.MethodPut, path: "/api/documents/" + juanReq.RequestID + "/status", token: adminToken,
			body:     marchallObj(t, document.StatusUpdate{Status: "done"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "status must be one of pending, approved, completed or rejected"}),
		},
	}
	runHTTPTests(t, tests)

	requestIDs := func(token, path string) []string {
		t.Helper()
		rec := do(http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var reqs []document.Request
		unmarshal(t, rec, &reqs)
		ids := make([]string, 0, len(reqs))
		for _, r := range reqs {
			ids = append(ids, r.RequestID)
		}
		return ids
	}
	assert.ElementsMatch(t, []string{juanReq.RequestID, mariaReq.RequestID}, requestIDs(adminToken, "/api/documents"))
	assert.Equal(t, []string{juanReq.RequestID}, requestIDs(juanToken, "/api/documents"))
	assert.Equal(t, []string{mariaReq.RequestID}, requestIDs(mariaToken, "/api/documents/resident/RES-0002"))
	assert.Equal(t, []string{mariaReq.RequestID}, requestIDs(adminToken, "/api/documents/resident/RES-0002"))

	t.Run("processing notifies email deliveries", func(t *testing.T) {
		mailSvc.Reset()
		rec := do(http.MethodPut, "/api/documents/"+juanReq.RequestID+"/status", adminToken, marchallObj(t, document.StatusUpdate{
			Status: "APPROVED", ProcessingNotes: "Ready for release",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var req document.Request
		unmarshal(t, rec, &req)
		assert.Equal(t, document.StatusApproved, req.Status)
		assert.Equal(t, admin.Username, req.ProcessedBy)
		assert.NotNil(t, req.ProcessingDate)

		sent := mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "juan@example.com", sent[0].To[0].Address)

		assert.Equal(t, []string{juanReq.RequestID}, requestIDs(adminToken, "/api/documents?status=approved"))
		assert.Empty(t, requestIDs(adminToken, "/api/documents?status=rejected"))
	})

	t.Run("pickup deliveries are not emailed", func(t *testing.T) {
		mailSvc.Reset()
		rec := do(http.MethodPut, "/api/documents/"+mariaReq.RequestID+"/status", adminToken, marchallObj(t, document.StatusUpdate{Status: document.StatusCompleted}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Empty(t, mailSvc.SentMessages())
	})

	rec := do(http.MethodDelete, "/api/documents/"+mariaReq.RequestID, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Document request deleted successfully"}`, rec.Body.String())
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/config"
	"github.com/varunSbabu/BloodLink/internal/models"
	"github.com/varunSbabu/BloodLink/internal/routes"
)

// envelope mirrors the standard response shape for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func setupServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
	}

	router := gin.New()
	routes.SetupRoutes(router, db, cfg)
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func donorPayload(phone, bloodType string) map[string]interface{} {
	return map[string]interface{}{
		"name":         "Test Donor",
		"age":          30,
		"gender":       "male",
		"bloodType":    bloodType,
		"phone":        phone,
		"country":      "India",
		"state":        "Karnataka",
		"city":         "Bangalore",
		"smoking":      "no",
		"drinking":     "no",
		"lastDonation": "never",
		"password":     "password123",
	}
}

func requestPayload(phone, bloodType string) map[string]interface{} {
	return map[string]interface{}{
		"name":             "Test Requester",
		"bloodType":        bloodType,
		"gender":           "female",
		"phone":            phone,
		"hospitalName":     "City Hospital",
		"hospitalLocation": "MG Road",
		"country":          "India",
		"state":            "Karnataka",
		"city":             "Bangalore",
		"urgency":          "urgent",
		"reason":           "surgery",
	}
}

func createDonor(t *testing.T, router *gin.Engine, phone, bloodType string) string {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/api/donors", donorPayload(phone, bloodType))
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var donor models.DonorSanitized
	require.NoError(t, json.Unmarshal(env.Data, &donor))
	require.NotEmpty(t, donor.ID)
	return donor.ID
}

func createRequest(t *testing.T, router *gin.Engine, phone, bloodType string) string {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/api/requests", requestPayload(phone, bloodType))
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var req models.BloodRequest
	require.NoError(t, json.Unmarshal(env.Data, &req))
	require.NotEmpty(t, req.ID)
	return req.ID
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupServer(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDonorRegistration(t *testing.T) {
	router, _ := setupServer(t)

	w, env := doJSON(t, router, http.MethodPost, "/api/donors", donorPayload("9876543210", "O+"))
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	require.NotContains(t, string(env.Data), "password")

	// Duplicate phone number.
	w, env = doJSON(t, router, http.MethodPost, "/api/donors", donorPayload("9876543210", "A-"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)

	// All field violations reported together.
	bad := donorPayload("12345", "O+")
	bad["age"] = 17
	bad["password"] = "short"
	w, env = doJSON(t, router, http.MethodPost, "/api/donors", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, string(env.Error), "phone")
	require.Contains(t, string(env.Error), "age")
	require.Contains(t, string(env.Error), "password")
}

func TestDonorLogin(t *testing.T) {
	router, _ := setupServer(t)
	createDonor(t, router, "9876543210", "O+")

	w, env := doJSON(t, router, http.MethodPost, "/api/donors/login", gin.H{
		"phone":    "9876543210",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	w, _ = doJSON(t, router, http.MethodPost, "/api/donors/login", gin.H{
		"phone":    "9876543210",
		"password": "wrongpass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestLifecycle(t *testing.T) {
	router, _ := setupServer(t)

	donorID := createDonor(t, router, "9000000001", "O+")
	requestID := createRequest(t, router, "9111111111", "O+")

	// Compatible donors are visible before any dispatch.
	w, env := doJSON(t, router, http.MethodGet, "/api/requests/"+requestID+"/matching-donors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	require.Equal(t, 1, *env.Count)

	// Broadcast to exact-type donors.
	w, env = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/send-to-donors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, string(env.Data), `"donorsSentTo":1`)

	// Everyone already has it.
	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/send-to-donors", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Donor accepts.
	path := "/api/donors/" + donorID + "/requests/" + requestID + "/accepted"
	w, _ = doJSON(t, router, http.MethodPut, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Requester confirms the donation.
	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/confirm-donation", gin.H{"donorId": donorID})
	require.Equal(t, http.StatusOK, w.Code)

	// Donated is terminal, confirming twice fails.
	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/confirm-donation", gin.H{"donorId": donorID})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Donation side effects are visible on the donor record.
	w, env = doJSON(t, router, http.MethodGet, "/api/donors/"+donorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var donor models.DonorSanitized
	require.NoError(t, json.Unmarshal(env.Data, &donor))
	require.Equal(t, 1, donor.DonationCount)
	require.False(t, donor.IsAvailable)
	require.Equal(t, models.LastDonationRecent, donor.LastDonation)
}

func TestDonorRejectIsTerminal(t *testing.T) {
	router, _ := setupServer(t)

	donorID := createDonor(t, router, "9000000001", "B+")
	requestID := createRequest(t, router, "9111111111", "B+")

	w, _ := doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/send-to-donors", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodPut, "/api/donors/"+donorID+"/requests/"+requestID+"/rejected", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A rejected link cannot be revived.
	w, _ = doJSON(t, router, http.MethodPut, "/api/donors/"+donorID+"/requests/"+requestID+"/accepted", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown status values are refused outright.
	w, _ = doJSON(t, router, http.MethodPut, "/api/donors/"+donorID+"/requests/"+requestID+"/maybe", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendToDonorsNoMatches(t *testing.T) {
	router, _ := setupServer(t)

	createDonor(t, router, "9000000001", "A+") // wrong type for the broadcast
	requestID := createRequest(t, router, "9111111111", "O-")

	w, _ := doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/send-to-donors", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendToSpecificDonor(t *testing.T) {
	router, _ := setupServer(t)

	incompatible := createDonor(t, router, "9000000001", "A+")
	compatible := createDonor(t, router, "9000000002", "O-")
	requestID := createRequest(t, router, "9111111111", "AB-")

	w, _ := doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/donors/"+incompatible, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/donors/"+compatible, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Already linked.
	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/donors/"+compatible, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestStatusView(t *testing.T) {
	router, _ := setupServer(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/requests/status", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/requests/status?phone=9111111111", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	donorID := createDonor(t, router, "9000000001", "AB+")
	requestID := createRequest(t, router, "9111111111", "AB+")
	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/send-to-donors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, router, http.MethodPut, "/api/donors/"+donorID+"/requests/"+requestID+"/accepted", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doJSON(t, router, http.MethodGet, "/api/requests/status?phone=9111111111", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	require.Equal(t, 1, *env.Count)

	var views []struct {
		ID             string                   `json:"id"`
		Status         string                   `json:"status"`
		AcceptedDonors []map[string]interface{} `json:"acceptedDonors"`
		AllDonors      []map[string]interface{} `json:"allDonors"`
		PendingCount   int                      `json:"pendingCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	require.Equal(t, requestID, views[0].ID)
	require.Equal(t, "fulfilled", views[0].Status)
	require.Len(t, views[0].AcceptedDonors, 1)
	require.Len(t, views[0].AllDonors, 1)
	require.Zero(t, views[0].PendingCount)
}

func TestOTPFlow(t *testing.T) {
	router, _ := setupServer(t)

	payload := gin.H{
		"phone":     "9876543210",
		"donorData": donorPayload("9876543210", "O+"),
	}
	w, _ := doJSON(t, router, http.MethodPost, "/api/otp/send", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/otp/verify", gin.H{"phone": "9876543210", "otp": "000000"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, env := doJSON(t, router, http.MethodPost, "/api/otp/verify", gin.H{"phone": "9876543210", "otp": "123456"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"donorData"`)
	require.Contains(t, w.Body.String(), `"9876543210"`)
	require.True(t, env.Success)

	// The code is consumed on successful verification.
	w, _ = doJSON(t, router, http.MethodPost, "/api/otp/verify", gin.H{"phone": "9876543210", "otp": "123456"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/otp/resend", gin.H{"phone": "0000000000"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOTPResend(t *testing.T) {
	router, _ := setupServer(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/otp/send", gin.H{"phone": "9876543210"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/otp/resend", gin.H{"phone": "9876543210"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/otp/verify", gin.H{"phone": "9876543210", "otp": "123456"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuthAndDashboard(t *testing.T) {
	router, _ := setupServer(t)

	// Reporting routes require a token.
	w, _ := doJSON(t, router, http.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	register := gin.H{"email": "admin@example.com", "password": "secret123", "name": "Admin"}
	w, env := doJSON(t, router, http.MethodPost, "/api/admin/register", register)
	require.Equal(t, http.StatusCreated, w.Code)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(t, auth.Token)

	// Duplicate email.
	w, _ = doJSON(t, router, http.MethodPost, "/api/admin/register", register)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/admin/login", gin.H{"email": "admin@example.com", "password": "wrong1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = doJSON(t, router, http.MethodPost, "/api/admin/login", gin.H{"email": "admin@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	createDonor(t, router, "9000000001", "O+")
	requestID := createRequest(t, router, "9111111111", "O+")
	w, _ = doJSON(t, router, http.MethodPost, "/api/requests/"+requestID+"/send-to-donors", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, router, http.MethodGet, "/api/admin/dashboard", nil, "Authorization", "Bearer "+auth.Token)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var dash struct {
		Donors struct {
			Total int64 `json:"total"`
		} `json:"donors"`
		Requests struct {
			Total   int64 `json:"total"`
			Pending int64 `json:"pending"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	require.EqualValues(t, 1, dash.Donors.Total)
	require.EqualValues(t, 1, dash.Requests.Total)
	require.EqualValues(t, 1, dash.Requests.Pending)

	w, env = doJSON(t, router, http.MethodGet, "/api/admin/donors", nil, "Authorization", "Bearer "+auth.Token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	require.Equal(t, 1, *env.Count)
}

func TestDeleteRequest(t *testing.T) {
	router, _ := setupServer(t)
	requestID := createRequest(t, router, "9111111111", "A+")

	w, _ := doJSON(t, router, http.MethodDelete, "/api/requests/"+requestID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/requests/"+requestID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAndDeleteDonor(t *testing.T) {
	router, _ := setupServer(t)
	donorID := createDonor(t, router, "9876543210", "O+")

	available := false
	w, env := doJSON(t, router, http.MethodPut, "/api/donors/"+donorID, gin.H{
		"city":        "Mysore",
		"isAvailable": available,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var donor models.DonorSanitized
	require.NoError(t, json.Unmarshal(env.Data, &donor))
	require.Equal(t, "Mysore", donor.City)
	require.False(t, donor.IsAvailable)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/donors/"+donorID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/donors/"+donorID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
	"github.com/varunSbabu/BloodLink/internal/registry"
	"github.com/varunSbabu/BloodLink/internal/sms"
	"github.com/varunSbabu/BloodLink/internal/utils"
)

// RequestHandler handles blood request related requests.
type RequestHandler struct {
	Requests   *registry.RequestRegistry
	Donors     *registry.DonorRegistry
	Matcher    *registry.Matcher
	Dispatcher *registry.Dispatcher
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(db *gorm.DB) *RequestHandler {
	donors := registry.NewDonorRegistry(db)
	return &RequestHandler{
		Requests:   registry.NewRequestRegistry(db),
		Donors:     donors,
		Matcher:    registry.NewMatcher(donors),
		Dispatcher: registry.NewDispatcher(db),
	}
}

// CreateRequestBody represents the request body for submitting a blood request.
type CreateRequestBody struct {
	Name             string `json:"name"`
	BloodType        string `json:"bloodType"`
	Gender           string `json:"gender"`
	Phone            string `json:"phone"`
	HospitalName     string `json:"hospitalName"`
	HospitalLocation string `json:"hospitalLocation"`
	Country          string `json:"country"`
	State            string `json:"state"`
	City             string `json:"city"`
	Urgency          string `json:"urgency"`
	Reason           string `json:"reason"`
}

// CreateRequest handles submitting a new blood request.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	req := models.BloodRequest{
		Name:             body.Name,
		BloodType:        models.BloodType(body.BloodType),
		Gender:           models.Gender(body.Gender),
		Phone:            body.Phone,
		HospitalName:     body.HospitalName,
		HospitalLocation: body.HospitalLocation,
		Country:          body.Country,
		State:            body.State,
		City:             body.City,
		Urgency:          models.Urgency(body.Urgency),
		Reason:           body.Reason,
	}

	if err := h.Requests.Create(&req); err != nil {
		respondRegistryError(c, err)
		return
	}

	sms.SendRegistrationConfirmation(req.Phone, false)
	utils.Created(c, "Blood request created successfully", req)
}

// GetRequests handles listing blood requests with optional filters.
func (h *RequestHandler) GetRequests(c *gin.Context) {
	filter := registry.RequestFilter{
		BloodType: models.BloodType(c.Query("bloodType")),
		Status:    models.OverallStatus(c.Query("status")),
		Phone:     c.Query("phone"),
	}
	requests, err := h.Requests.FindAll(filter)
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}
	utils.SuccessWithCount(c, len(requests), requests)
}

// GetRequestByID handles fetching a single blood request with its donors.
func (h *RequestHandler) GetRequestByID(c *gin.Context) {
	req, err := h.Requests.FindByID(c.Param("id"), true)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "", req)
}

// DeleteRequest handles a requester withdrawing a blood request.
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.Requests.Delete(c.Param("id")); err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "Blood request deleted", gin.H{})
}

// GetMatchingDonors handles listing donors compatible with a request's blood
// type. Zero matches is reported as an empty list, not an error.
func (h *RequestHandler) GetMatchingDonors(c *gin.Context) {
	req, err := h.Requests.FindByID(c.Param("id"), false)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	donors, err := h.Matcher.FindMatches(req)
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}
	sanitized := sanitizeDonors(donors)
	utils.SuccessWithCount(c, len(sanitized), sanitized)
}

// SendToDonors handles broadcasting a request to every available donor of
// the exact requested blood type that has not already received it.
func (h *RequestHandler) SendToDonors(c *gin.Context) {
	requestID := c.Param("id")
	req, err := h.Requests.FindByID(requestID, false)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	matching, err := h.Matcher.FindExactMatches(req)
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}
	if len(matching) == 0 {
		utils.NotFound(c, "No matching donors found")
		return
	}

	donorIDs := make([]string, len(matching))
	for i, d := range matching {
		donorIDs[i] = d.ID
	}

	sent, err := h.Dispatcher.DispatchToDonors(requestID, donorIDs)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	if sent == 0 {
		utils.BadRequest(c, "Request has already been sent to all matching donors")
		return
	}

	for _, d := range matching {
		sms.SendRequestNotification(d.Phone, string(req.BloodType))
	}
	sms.SendDonorMatch(req.Phone, sent)

	utils.Success(c, "Request sent to donors", gin.H{
		"requestId":    requestID,
		"donorsSentTo": sent,
	})
}

// SendToSpecificDonor handles dispatching a request to one chosen donor.
func (h *RequestHandler) SendToSpecificDonor(c *gin.Context) {
	requestID := c.Param("id")
	donorID := c.Param("donorId")

	if err := h.Dispatcher.DispatchToDonor(requestID, donorID); err != nil {
		respondRegistryError(c, err)
		return
	}

	if donor, err := h.Donors.FindByID(donorID, false); err == nil {
		if req, err := h.Requests.FindByID(requestID, false); err == nil {
			sms.SendRequestNotification(donor.Phone, string(req.BloodType))
		}
	}

	utils.Success(c, "Blood request sent to donor successfully", gin.H{
		"requestId": requestID,
		"donorId":   donorID,
		"status":    models.LinkPending,
	})
}

// ConfirmDonationBody represents the request body for confirming a donation.
type ConfirmDonationBody struct {
	DonorID string `json:"donorId" binding:"required"`
}

// ConfirmDonation handles recording that a linked donor gave blood.
func (h *RequestHandler) ConfirmDonation(c *gin.Context) {
	var body ConfirmDonationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequest(c, "Donor ID is required")
		return
	}

	if err := h.Dispatcher.ConfirmDonation(c.Param("id"), body.DonorID); err != nil {
		respondRegistryError(c, err)
		return
	}

	req, err := h.Requests.FindByID(c.Param("id"), true)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "Donation confirmed successfully", req)
}

// FulfillRequestBody represents the request body for fulfilling a request.
type FulfillRequestBody struct {
	DonorID string `json:"donorId" binding:"required"`
}

// FulfillRequest handles marking a request as fulfilled by a donor, creating
// the link in donated state when the donor was never formally dispatched.
func (h *RequestHandler) FulfillRequest(c *gin.Context) {
	var body FulfillRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequest(c, "Donor ID is required")
		return
	}

	if err := h.Dispatcher.FulfillRequest(c.Param("id"), body.DonorID); err != nil {
		respondRegistryError(c, err)
		return
	}

	req, err := h.Requests.FindByID(c.Param("id"), true)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "Request marked as fulfilled", req)
}

// DonorStatusView is one donor's row in the requester-facing status view.
type DonorStatusView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	BloodType models.BloodType  `json:"bloodType"`
	City      string            `json:"city"`
	State     string            `json:"state"`
	Phone     string            `json:"phone"`
	Status    models.LinkStatus `json:"status"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// RequestStatusView summarizes one request for its requester.
type RequestStatusView struct {
	ID             string               `json:"id"`
	BloodType      models.BloodType     `json:"bloodType"`
	CreatedAt      time.Time            `json:"createdAt"`
	Status         models.OverallStatus `json:"status"`
	AcceptedDonors []DonorStatusView    `json:"acceptedDonors"`
	AllDonors      []DonorStatusView    `json:"allDonors"`
	PendingCount   int                  `json:"pendingCount"`
	RejectedCount  int                  `json:"rejectedCount"`
	DonatedCount   int                  `json:"donatedCount"`
}

// GetRequestStatus handles the requester's status check: every request filed
// from their phone with a per-donor breakdown.
func (h *RequestHandler) GetRequestStatus(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		utils.BadRequest(c, "Phone number is required to check request status")
		return
	}

	requests, err := h.Requests.FindByPhone(phone)
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}

	// Prefer requests matching the given blood type; fall back to all
	// requests from this phone when none match.
	if bloodType := c.Query("bloodType"); bloodType != "" {
		var matched []models.BloodRequest
		for _, r := range requests {
			if r.BloodType == models.BloodType(bloodType) {
				matched = append(matched, r)
			}
		}
		if len(matched) > 0 {
			requests = matched
		}
	}

	if len(requests) == 0 {
		utils.NotFound(c, "No blood requests found for this phone number")
		return
	}

	views := make([]RequestStatusView, 0, len(requests))
	for _, r := range requests {
		views = append(views, buildStatusView(r))
	}
	utils.SuccessWithCount(c, len(views), views)
}

func buildStatusView(r models.BloodRequest) RequestStatusView {
	view := RequestStatusView{
		ID:             r.ID,
		BloodType:      r.BloodType,
		CreatedAt:      r.CreatedAt,
		Status:         r.OverallStatus,
		AcceptedDonors: []DonorStatusView{},
		AllDonors:      []DonorStatusView{},
	}
	for _, link := range r.DonorRequests {
		switch link.Status {
		case models.LinkPending:
			view.PendingCount++
		case models.LinkRejected:
			view.RejectedCount++
		case models.LinkDonated:
			view.DonatedCount++
		}
		if link.Donor == nil {
			continue
		}
		dv := DonorStatusView{
			ID:        link.Donor.ID,
			Name:      link.Donor.Name,
			BloodType: link.Donor.BloodType,
			City:      link.Donor.City,
			State:     link.Donor.State,
			Phone:     link.Donor.Phone,
			Status:    link.Status,
			UpdatedAt: link.UpdatedAt,
		}
		view.AllDonors = append(view.AllDonors, dv)
		if link.Status == models.LinkAccepted || link.Status == models.LinkDonated {
			view.AcceptedDonors = append(view.AcceptedDonors, dv)
		}
	}
	return view
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
	"github.com/varunSbabu/BloodLink/internal/registry"
	"github.com/varunSbabu/BloodLink/internal/sms"
	"github.com/varunSbabu/BloodLink/internal/utils"
)

// DonorHandler handles donor related requests.
type DonorHandler struct {
	Donors     *registry.DonorRegistry
	Dispatcher *registry.Dispatcher
}

// NewDonorHandler creates a new DonorHandler.
func NewDonorHandler(db *gorm.DB) *DonorHandler {
	return &DonorHandler{
		Donors:     registry.NewDonorRegistry(db),
		Dispatcher: registry.NewDispatcher(db),
	}
}

// CreateDonorRequest represents the request body for donor registration.
type CreateDonorRequest struct {
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	Gender       string  `json:"gender"`
	BloodType    string  `json:"bloodType"`
	Phone        string  `json:"phone"`
	Country      string  `json:"country"`
	State        string  `json:"state"`
	City         string  `json:"city"`
	Smoking      string  `json:"smoking"`
	Drinking     string  `json:"drinking"`
	LastDonation string  `json:"lastDonation"`
	Password     string  `json:"password"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// CreateDonor handles donor registration. Field-level violations are
// collected by the registry and reported together.
func (h *DonorHandler) CreateDonor(c *gin.Context) {
	var req CreateDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	donor := models.Donor{
		Name:         req.Name,
		Age:          req.Age,
		Gender:       models.Gender(req.Gender),
		BloodType:    models.BloodType(req.BloodType),
		Phone:        req.Phone,
		Country:      req.Country,
		State:        req.State,
		City:         req.City,
		Smoking:      req.Smoking,
		Drinking:     req.Drinking,
		LastDonation: models.LastDonation(req.LastDonation),
		Password:     req.Password,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}

	if err := h.Donors.Create(&donor); err != nil {
		respondRegistryError(c, err)
		return
	}

	sms.SendRegistrationConfirmation(donor.Phone, true)
	utils.Created(c, "Donor registered successfully", donor.Sanitize())
}

// LoginRequest represents the request body for donor login.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles donor login.
func (h *DonorHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Please provide phone number and password")
		return
	}

	donor, err := h.Donors.Authenticate(req.Phone, req.Password)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.Success(c, "Login successful", donor.Sanitize())
}

// GetDonors handles listing donors, optionally filtered by blood type.
func (h *DonorHandler) GetDonors(c *gin.Context) {
	donors, err := h.Donors.FindAll(models.BloodType(c.Query("bloodType")))
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}

	sanitized := sanitizeDonors(donors)
	utils.SuccessWithCount(c, len(sanitized), sanitized)
}

// GetDonorByID handles fetching a single donor.
func (h *DonorHandler) GetDonorByID(c *gin.Context) {
	donor, err := h.Donors.FindByID(c.Param("id"), false)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "", donor.Sanitize())
}

// UpdateDonorRequest represents the request body for updating a donor.
// Zero-valued fields are left unchanged.
type UpdateDonorRequest struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	IsAvailable *bool  `json:"isAvailable"`
}

// UpdateDonor handles updating a donor's mutable profile fields.
func (h *DonorHandler) UpdateDonor(c *gin.Context) {
	var req UpdateDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	donor, err := h.Donors.FindByID(c.Param("id"), false)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	if req.Name != "" {
		donor.Name = req.Name
	}
	if req.Country != "" {
		donor.Country = req.Country
	}
	if req.State != "" {
		donor.State = req.State
	}
	if req.City != "" {
		donor.City = req.City
	}
	if req.IsAvailable != nil {
		donor.IsAvailable = *req.IsAvailable
	}

	if err := h.Donors.Save(donor); err != nil {
		utils.InternalServerError(c, "Failed to update donor: "+err.Error())
		return
	}

	utils.Success(c, "Donor updated successfully", donor.Sanitize())
}

// DeleteDonor handles removing a donor record.
func (h *DonorHandler) DeleteDonor(c *gin.Context) {
	if err := h.Donors.Delete(c.Param("id")); err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "Donor deleted", gin.H{})
}

// GetDonorRequests handles fetching the blood requests linked to a donor.
func (h *DonorHandler) GetDonorRequests(c *gin.Context) {
	donor, err := h.Donors.FindByID(c.Param("id"), true)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	utils.Success(c, "", donor.BloodRequests)
}

// UpdateRequestStatus handles a donor accepting, rejecting or completing a
// blood request. The status change is propagated to both sides of the link.
func (h *DonorHandler) UpdateRequestStatus(c *gin.Context) {
	donorID := c.Param("id")
	requestID := c.Param("requestId")
	status := models.LinkStatus(c.Param("status"))

	if err := h.Dispatcher.UpdateStatus(requestID, donorID, status); err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.Success(c, "Request status updated to "+string(status), gin.H{
		"donorId":   donorID,
		"requestId": requestID,
		"status":    status,
	})
}

// GetDonorsByBloodType handles listing available donors of an exact type.
func (h *DonorHandler) GetDonorsByBloodType(c *gin.Context) {
	donors, err := h.Donors.FindByBloodType(models.BloodType(c.Param("bloodType")), true)
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}
	sanitized := sanitizeDonors(donors)
	utils.SuccessWithCount(c, len(sanitized), sanitized)
}

// GetNearbyDonors handles a geographic radius search for available donors.
func (h *DonorHandler) GetNearbyDonors(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Param("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Param("lng"), 64)
	if latErr != nil || lngErr != nil {
		utils.BadRequest(c, "Invalid latitude or longitude")
		return
	}
	radius, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		radius = registry.DefaultNearbyRadiusKm
	}

	donors, err := h.Donors.FindNearby(lat, lng, radius)
	if err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}
	sanitized := sanitizeDonors(donors)
	utils.SuccessWithCount(c, len(sanitized), sanitized)
}

func sanitizeDonors(donors []models.Donor) []models.DonorSanitized {
	out := make([]models.DonorSanitized, len(donors))
	for i := range donors {
		out[i] = donors[i].Sanitize()
	}
	return out
}

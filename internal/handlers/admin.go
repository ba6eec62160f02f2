package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/config"
	"github.com/varunSbabu/BloodLink/internal/models"
	"github.com/varunSbabu/BloodLink/internal/utils"
)

// AdminHandler handles administration and reporting requests.
type AdminHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config) *AdminHandler {
	return &AdminHandler{DB: db, Cfg: cfg}
}

// AdminRegisterRequest represents the request body for admin registration.
type AdminRegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

// AdminAuthResponse represents the response body for admin register/login.
type AdminAuthResponse struct {
	Token string       `json:"token"`
	Admin models.Admin `json:"admin"`
}

// Register handles creating a new admin account.
func (h *AdminHandler) Register(c *gin.Context) {
	var req AdminRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var existing models.Admin
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.BadRequest(c, "Admin already exists with this email")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	admin := models.Admin{
		Email: req.Email,
		Name:  req.Name,
	}
	if err := admin.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}
	if err := h.DB.Create(&admin).Error; err != nil {
		utils.InternalServerError(c, "Failed to create admin: "+err.Error())
		return
	}

	token, err := utils.GenerateAdminToken(&admin, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token: "+err.Error())
		return
	}

	utils.Created(c, "Admin registered successfully", AdminAuthResponse{Token: token, Admin: admin})
}

// AdminLoginRequest represents the request body for admin login.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles admin login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var admin models.Admin
	if err := h.DB.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if !admin.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	token, err := utils.GenerateAdminToken(&admin, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token: "+err.Error())
		return
	}

	utils.Success(c, "Login successful", AdminAuthResponse{Token: token, Admin: admin})
}

// BloodTypeCount is one row of the donor blood-type distribution.
type BloodTypeCount struct {
	BloodType models.BloodType `json:"bloodType"`
	Count     int64            `json:"count"`
}

// DashboardData aggregates platform-wide statistics for reporting.
type DashboardData struct {
	Donors struct {
		Total                 int64            `json:"total"`
		BloodTypeDistribution []BloodTypeCount `json:"bloodTypeDistribution"`
	} `json:"donors"`
	Requests struct {
		Total     int64 `json:"total"`
		Pending   int64 `json:"pending"`
		Fulfilled int64 `json:"fulfilled"`
		Expired   int64 `json:"expired"`
	} `json:"requests"`
	Donations struct {
		Accepted  int64 `json:"accepted"`
		Completed int64 `json:"completed"`
	} `json:"donations"`
}

// Dashboard handles the admin reporting view.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var data DashboardData

	if err := h.DB.Model(&models.Donor{}).Count(&data.Donors.Total).Error; err != nil {
		utils.InternalServerError(c, "Dashboard data error: "+err.Error())
		return
	}
	err := h.DB.Model(&models.Donor{}).
		Select("blood_type, count(*) as count").
		Group("blood_type").
		Order("blood_type").
		Scan(&data.Donors.BloodTypeDistribution).Error
	if err != nil {
		utils.InternalServerError(c, "Dashboard data error: "+err.Error())
		return
	}

	requestCounts := []struct {
		Status models.OverallStatus
		Dest   *int64
	}{
		{models.OverallPending, &data.Requests.Pending},
		{models.OverallFulfilled, &data.Requests.Fulfilled},
		{models.OverallExpired, &data.Requests.Expired},
	}
	if err := h.DB.Model(&models.BloodRequest{}).Count(&data.Requests.Total).Error; err != nil {
		utils.InternalServerError(c, "Dashboard data error: "+err.Error())
		return
	}
	for _, rc := range requestCounts {
		err := h.DB.Model(&models.BloodRequest{}).
			Where("overall_status = ?", rc.Status).
			Count(rc.Dest).Error
		if err != nil {
			utils.InternalServerError(c, "Dashboard data error: "+err.Error())
			return
		}
	}

	err = h.DB.Model(&models.RequestDonorLink{}).
		Where("status = ?", models.LinkAccepted).
		Count(&data.Donations.Accepted).Error
	if err != nil {
		utils.InternalServerError(c, "Dashboard data error: "+err.Error())
		return
	}
	err = h.DB.Model(&models.RequestDonorLink{}).
		Where("status = ?", models.LinkDonated).
		Count(&data.Donations.Completed).Error
	if err != nil {
		utils.InternalServerError(c, "Dashboard data error: "+err.Error())
		return
	}

	utils.Success(c, "", data)
}

// GetDonors handles the admin donor listing.
func (h *AdminHandler) GetDonors(c *gin.Context) {
	var donors []models.Donor
	if err := h.DB.Order("created_at desc").Find(&donors).Error; err != nil {
		utils.InternalServerError(c, "Get donors error: "+err.Error())
		return
	}
	sanitized := sanitizeDonors(donors)
	utils.SuccessWithCount(c, len(sanitized), sanitized)
}

// GetRequests handles the admin request listing with linked donor details.
func (h *AdminHandler) GetRequests(c *gin.Context) {
	var requests []models.BloodRequest
	err := h.DB.Preload("DonorRequests").Preload("DonorRequests.Donor").
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		utils.InternalServerError(c, "Get requests error: "+err.Error())
		return
	}
	utils.SuccessWithCount(c, len(requests), requests)
}

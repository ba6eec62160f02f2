package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
	"github.com/varunSbabu/BloodLink/internal/sms"
	"github.com/varunSbabu/BloodLink/internal/utils"
)

// OTPHandler handles phone verification requests.
type OTPHandler struct {
	DB *gorm.DB
}

// NewOTPHandler creates a new OTPHandler.
func NewOTPHandler(db *gorm.DB) *OTPHandler {
	return &OTPHandler{DB: db}
}

// SendOTPRequest represents the request body for requesting a code. The
// donor registration payload rides along and is returned on verification.
type SendOTPRequest struct {
	Phone     string                 `json:"phone" binding:"required"`
	DonorData map[string]interface{} `json:"donorData"`
}

// SendOTP handles sending a verification code to a phone number.
func (h *OTPHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Phone number is required")
		return
	}

	result := sms.SendOTP(req.Phone)
	if !result.Success {
		utils.InternalServerError(c, result.Message)
		return
	}

	donorData := "{}"
	if req.DonorData != nil {
		raw, err := json.Marshal(req.DonorData)
		if err != nil {
			utils.InternalServerError(c, "Failed to store donor data: "+err.Error())
			return
		}
		donorData = string(raw)
	}

	record := models.OTPVerification{
		Phone:           req.Phone,
		DonorData:       donorData,
		VerificationSID: result.SID,
	}
	if err := h.DB.Create(&record).Error; err != nil {
		utils.InternalServerError(c, "Server Error: Failed to save OTP data - "+err.Error())
		return
	}

	utils.Success(c, "Verification code sent successfully to your mobile number", nil)
}

// VerifyOTPRequest represents the request body for verifying a code.
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP handles checking a code and releasing the stored donor payload.
func (h *OTPHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Phone number and OTP are required")
		return
	}

	result := sms.VerifyOTP(req.Phone, req.OTP)
	if !result.Success {
		utils.BadRequest(c, result.Message)
		return
	}

	var record models.OTPVerification
	err := h.DB.Where("phone = ?", req.Phone).Order("created_at desc").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "No OTP request found for this phone number")
		} else {
			utils.InternalServerError(c, "Server Error: "+err.Error())
		}
		return
	}
	if record.IsExpired() {
		h.DB.Delete(&record)
		utils.BadRequest(c, "Verification code has expired, please request a new one")
		return
	}

	var donorData map[string]interface{}
	if err := json.Unmarshal([]byte(record.DonorData), &donorData); err != nil {
		donorData = map[string]interface{}{}
	}

	// One-shot: the record is consumed on successful verification.
	h.DB.Delete(&record)

	c.JSON(200, gin.H{
		"success":   true,
		"message":   "OTP verified successfully",
		"donorData": donorData,
	})
}

// ResendOTPRequest represents the request body for resending a code.
type ResendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// ResendOTP handles issuing a fresh code for an existing verification.
func (h *OTPHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Phone number is required")
		return
	}

	var record models.OTPVerification
	err := h.DB.Where("phone = ?", req.Phone).Order("created_at desc").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "No OTP request found for this phone number")
		} else {
			utils.InternalServerError(c, "Server Error: "+err.Error())
		}
		return
	}

	result := sms.SendOTP(req.Phone)
	if !result.Success {
		utils.InternalServerError(c, result.Message)
		return
	}

	record.VerificationSID = result.SID
	if err := h.DB.Save(&record).Error; err != nil {
		utils.InternalServerError(c, "Server Error: "+err.Error())
		return
	}

	utils.Success(c, "Verification code resent successfully to your mobile number", nil)
}

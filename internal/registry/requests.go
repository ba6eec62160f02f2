package registry

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
)

// RequestRegistry is the entity store for blood-request records.
type RequestRegistry struct {
	DB *gorm.DB
}

// NewRequestRegistry creates a new RequestRegistry.
func NewRequestRegistry(db *gorm.DB) *RequestRegistry {
	return &RequestRegistry{DB: db}
}

// WithTx returns a registry bound to the given transaction handle.
func (r *RequestRegistry) WithTx(tx *gorm.DB) *RequestRegistry {
	return &RequestRegistry{DB: tx}
}

// RequestFilter narrows FindAll results. Zero values mean "no filter".
type RequestFilter struct {
	BloodType models.BloodType
	Status    models.OverallStatus
	Phone     string
}

// Create validates and persists a new blood request.
func (r *RequestRegistry) Create(req *models.BloodRequest) error {
	if req.Urgency == "" {
		req.Urgency = models.UrgencyNormal
	}
	if err := validate.Struct(req); err != nil {
		return newValidationError(err)
	}
	req.OverallStatus = models.ComputeOverallStatus(req.DonorRequests)
	return r.DB.Create(req).Error
}

// FindByID fetches a request with its donor links, optionally preloading the
// linked donors themselves.
func (r *RequestRegistry) FindByID(id string, withDonors bool) (*models.BloodRequest, error) {
	query := r.DB.Preload("DonorRequests")
	if withDonors {
		query = query.Preload("DonorRequests.Donor")
	}
	var req models.BloodRequest
	if err := query.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindAll returns requests matching the filter, most recent first.
func (r *RequestRegistry) FindAll(filter RequestFilter) ([]models.BloodRequest, error) {
	query := r.DB.Preload("DonorRequests").Order("created_at desc")
	if filter.BloodType != "" {
		query = query.Where("blood_type = ?", filter.BloodType)
	}
	if filter.Status != "" {
		query = query.Where("overall_status = ?", filter.Status)
	}
	if filter.Phone != "" {
		query = query.Where("phone = ?", filter.Phone)
	}
	var requests []models.BloodRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindByPhone returns the requests submitted from a phone number, most recent
// first, with linked donors loaded for the status view.
func (r *RequestRegistry) FindByPhone(phone string) ([]models.BloodRequest, error) {
	var requests []models.BloodRequest
	err := r.DB.Preload("DonorRequests").Preload("DonorRequests.Donor").
		Where("phone = ?", phone).
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Delete removes a blood request record.
func (r *RequestRegistry) Delete(id string) error {
	res := r.DB.Delete(&models.BloodRequest{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// LinkDonor appends a pending link for the given donor unless one already
// exists. Idempotent by donor ID; reports whether a link was created. The
// derived overall status is recomputed before return.
func (r *RequestRegistry) LinkDonor(requestID, donorID string) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.BloodRequest{}).Where("id = ?", requestID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrRequestNotFound
	}

	var existing int64
	err := r.DB.Model(&models.RequestDonorLink{}).
		Where("request_id = ? AND donor_id = ?", requestID, donorID).
		Count(&existing).Error
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	link := models.RequestDonorLink{
		RequestID: requestID,
		DonorID:   donorID,
		Status:    models.LinkPending,
	}
	if err := r.DB.Create(&link).Error; err != nil {
		return false, err
	}
	if err := r.refreshOverallStatus(requestID); err != nil {
		return false, err
	}
	return true, nil
}

// LinkedDonorIDs returns the IDs of donors already linked to the request.
func (r *RequestRegistry) LinkedDonorIDs(requestID string) (map[string]bool, error) {
	var links []models.RequestDonorLink
	if err := r.DB.Where("request_id = ?", requestID).Find(&links).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(links))
	for _, l := range links {
		ids[l.DonorID] = true
	}
	return ids, nil
}

// SetDonorStatus updates the request-side link entry for the given donor and
// recomputes the derived overall status before return.
func (r *RequestRegistry) SetDonorStatus(requestID, donorID string, status models.LinkStatus) error {
	var link models.RequestDonorLink
	err := r.DB.Where("request_id = ? AND donor_id = ?", requestID, donorID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	link.Status = status
	link.UpdatedAt = time.Now()
	if err := r.DB.Save(&link).Error; err != nil {
		return err
	}
	return r.refreshOverallStatus(requestID)
}

// refreshOverallStatus recomputes the derived status from the stored links
// and persists it. OverallStatus is a computed column, never set directly.
func (r *RequestRegistry) refreshOverallStatus(requestID string) error {
	var links []models.RequestDonorLink
	if err := r.DB.Where("request_id = ?", requestID).Find(&links).Error; err != nil {
		return err
	}
	status := models.ComputeOverallStatus(links)
	return r.DB.Model(&models.BloodRequest{}).Where("id = ?", requestID).
		Update("overall_status", status).Error
}

package registry

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
)

// DefaultNearbyRadiusKm is used when a nearby search gives no radius.
const DefaultNearbyRadiusKm = 10.0

// DonorRegistry is the entity store for donor records.
type DonorRegistry struct {
	DB *gorm.DB
}

// NewDonorRegistry creates a new DonorRegistry.
func NewDonorRegistry(db *gorm.DB) *DonorRegistry {
	return &DonorRegistry{DB: db}
}

// WithTx returns a registry bound to the given transaction handle.
func (r *DonorRegistry) WithTx(tx *gorm.DB) *DonorRegistry {
	return &DonorRegistry{DB: tx}
}

// Create validates and persists a new donor. All field violations are
// reported together in one ValidationError; a duplicate phone number is
// reported as ErrDuplicatePhone. The credential is hashed before persisting.
func (r *DonorRegistry) Create(donor *models.Donor) error {
	if err := validate.Struct(donor); err != nil {
		return newValidationError(err)
	}

	var count int64
	if err := r.DB.Model(&models.Donor{}).Where("phone = ?", donor.Phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicatePhone
	}

	plaintext := donor.Password
	if err := donor.SetPassword(plaintext); err != nil {
		return err
	}
	if donor.LastDonation == "" {
		donor.LastDonation = models.LastDonationNever
	}
	donor.IsAvailable = true

	return r.DB.Create(donor).Error
}

// Authenticate looks a donor up by phone and verifies the password. A missing
// donor and a wrong password both come back as ErrInvalidCredentials so the
// response does not leak which phones are registered.
func (r *DonorRegistry) Authenticate(phone, password string) (*models.Donor, error) {
	var donor models.Donor
	if err := r.DB.Where("phone = ?", phone).First(&donor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !donor.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &donor, nil
}

// FindByID fetches a donor, optionally with their request links loaded.
func (r *DonorRegistry) FindByID(id string, withLinks bool) (*models.Donor, error) {
	query := r.DB
	if withLinks {
		query = query.Preload("BloodRequests")
	}
	var donor models.Donor
	if err := query.First(&donor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonorNotFound
		}
		return nil, err
	}
	return &donor, nil
}

// FindAll returns donors, filtered by blood type when one is given.
func (r *DonorRegistry) FindAll(bloodType models.BloodType) ([]models.Donor, error) {
	query := r.DB
	if bloodType != "" {
		query = query.Where("blood_type = ?", bloodType)
	}
	var donors []models.Donor
	if err := query.Find(&donors).Error; err != nil {
		return nil, err
	}
	return donors, nil
}

// FindByBloodType returns donors of exactly the given type.
func (r *DonorRegistry) FindByBloodType(bloodType models.BloodType, availableOnly bool) ([]models.Donor, error) {
	query := r.DB.Where("blood_type = ?", bloodType)
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	var donors []models.Donor
	if err := query.Find(&donors).Error; err != nil {
		return nil, err
	}
	return donors, nil
}

// FindByBloodTypes returns available donors whose type is in the given set.
func (r *DonorRegistry) FindByBloodTypes(bloodTypes []models.BloodType, availableOnly bool) ([]models.Donor, error) {
	query := r.DB.Where("blood_type IN ?", bloodTypes)
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	var donors []models.Donor
	if err := query.Find(&donors).Error; err != nil {
		return nil, err
	}
	return donors, nil
}

// FindNearby returns available donors within radiusKm of the given point.
func (r *DonorRegistry) FindNearby(lat, lng, radiusKm float64) ([]models.Donor, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	var donors []models.Donor
	if err := r.DB.Where("is_available = ?", true).Find(&donors).Error; err != nil {
		return nil, err
	}
	nearby := make([]models.Donor, 0, len(donors))
	for _, d := range donors {
		if haversineKm(lat, lng, d.Latitude, d.Longitude) <= radiusKm {
			nearby = append(nearby, d)
		}
	}
	return nearby, nil
}

// Save persists in-place mutations to an existing donor.
func (r *DonorRegistry) Save(donor *models.Donor) error {
	return r.DB.Save(donor).Error
}

// Delete removes a donor record.
func (r *DonorRegistry) Delete(id string) error {
	res := r.DB.Delete(&models.Donor{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDonorNotFound
	}
	return nil
}

// LinkRequest appends a pending link for the given request unless one already
// exists. Idempotent by request ID; reports whether a link was created.
func (r *DonorRegistry) LinkRequest(donorID, requestID string) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.Donor{}).Where("id = ?", donorID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrDonorNotFound
	}

	var existing int64
	err := r.DB.Model(&models.DonorRequestLink{}).
		Where("donor_id = ? AND request_id = ?", donorID, requestID).
		Count(&existing).Error
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	link := models.DonorRequestLink{
		DonorID:   donorID,
		RequestID: requestID,
		Status:    models.LinkPending,
	}
	if err := r.DB.Create(&link).Error; err != nil {
		return false, err
	}
	return true, nil
}

// LinkStatus returns the donor-side status of the link to the given request.
func (r *DonorRegistry) LinkStatus(donorID, requestID string) (models.LinkStatus, error) {
	var link models.DonorRequestLink
	err := r.DB.Where("donor_id = ? AND request_id = ?", donorID, requestID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLinkNotFound
		}
		return "", err
	}
	return link.Status, nil
}

// SetRequestStatus updates the donor-side link entry for the given request.
// A donated status additionally increments the donation count, resets the
// last-donation bucket and marks the donor unavailable.
func (r *DonorRegistry) SetRequestStatus(donorID, requestID string, status models.LinkStatus) error {
	var link models.DonorRequestLink
	err := r.DB.Where("donor_id = ? AND request_id = ?", donorID, requestID).First(&link).Error
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

	if status == models.LinkDonated {
		return r.recordDonation(donorID)
	}
	return nil
}

// recordDonation applies the side effects of a completed donation.
func (r *DonorRegistry) recordDonation(donorID string) error {
	return r.DB.Model(&models.Donor{}).Where("id = ?", donorID).
		Updates(map[string]interface{}{
			"donation_count": gorm.Expr("donation_count + 1"),
			"last_donation":  models.LastDonationRecent,
			"is_available":   false,
		}).Error
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

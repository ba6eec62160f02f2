package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Gender enum
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// LastDonation buckets how recently a donor last gave blood.
type LastDonation string

const (
	LastDonationNever      LastDonation = "never"
	LastDonationRecent     LastDonation = "less_than_3_months"
	LastDonationMoreThan3M LastDonation = "more_than_3_months"
)

// Donor represents a registered blood donor.
type Donor struct {
	BaseModel
	Name         string       `gorm:"size:100;not null" json:"name" validate:"required"`
	Age          int          `gorm:"not null" json:"age" validate:"required,gte=18,lte=65"`
	Gender       Gender       `gorm:"size:10;not null" json:"gender" validate:"required,oneof=male female other"`
	BloodType    BloodType    `gorm:"size:3;index;not null" json:"bloodType" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Phone        string       `gorm:"uniqueIndex;size:10;not null" json:"phone" validate:"required,len=10,numeric"`
	Country      string       `gorm:"size:100;not null" json:"country" validate:"required"`
	State        string       `gorm:"size:100;not null" json:"state" validate:"required"`
	City         string       `gorm:"size:100;not null" json:"city" validate:"required"`
	Smoking      string       `gorm:"size:3;not null" json:"smoking" validate:"required,oneof=yes no"`
	Drinking     string       `gorm:"size:3;not null" json:"drinking" validate:"required,oneof=yes no"`
	LastDonation LastDonation `gorm:"size:20;default:'never'" json:"lastDonation" validate:"required,oneof=never less_than_3_months more_than_3_months"`
	Password     string       `gorm:"size:255;not null" json:"-" validate:"required,min=6"`

	DonationCount int     `gorm:"default:0" json:"donationCount"`
	IsAvailable   bool    `gorm:"default:true" json:"isAvailable"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`

	// Blood requests this donor has been linked to (donor-side half of the
	// donor<->request link).
	BloodRequests []DonorRequestLink `gorm:"foreignKey:DonorID" json:"bloodRequests,omitempty"`
}

// DonorRequestLink is the donor-side record of a request sent to a donor.
// Its counterpart on the request side is RequestDonorLink; the two halves are
// kept in sync by the dispatch workflow.
type DonorRequestLink struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	DonorID   string     `gorm:"size:36;index;not null" json:"-"`
	RequestID string     `gorm:"size:36;index;not null" json:"requestId"`
	Status    LinkStatus `gorm:"size:10;default:'pending'" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the donor
func (d *Donor) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	d.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the donor's hashed password
func (d *Donor) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(d.Password), []byte(password))
	return err == nil
}

// DonorSanitized represents the donor data that is safe to send in API responses.
type DonorSanitized struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Age           int                `json:"age"`
	Gender        Gender             `json:"gender"`
	BloodType     BloodType          `json:"bloodType"`
	Phone         string             `json:"phone"`
	Country       string             `json:"country"`
	State         string             `json:"state"`
	City          string             `json:"city"`
	Smoking       string             `json:"smoking"`
	Drinking      string             `json:"drinking"`
	LastDonation  LastDonation       `json:"lastDonation"`
	DonationCount int                `json:"donationCount"`
	IsAvailable   bool               `json:"isAvailable"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	BloodRequests []DonorRequestLink `json:"bloodRequests,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Sanitize creates a DonorSanitized struct from a Donor model, excluding the credential.
func (d *Donor) Sanitize() DonorSanitized {
	return DonorSanitized{
		ID:            d.ID,
		Name:          d.Name,
		Age:           d.Age,
		Gender:        d.Gender,
		BloodType:     d.BloodType,
		Phone:         d.Phone,
		Country:       d.Country,
		State:         d.State,
		City:          d.City,
		Smoking:       d.Smoking,
		Drinking:      d.Drinking,
		LastDonation:  d.LastDonation,
		DonationCount: d.DonationCount,
		IsAvailable:   d.IsAvailable,
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		BloodRequests: d.BloodRequests,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

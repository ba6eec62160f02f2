package models

import "time"

// OTPExpiry is how long a verification request stays valid.
const OTPExpiry = 10 * time.Minute

// OTPVerification holds a pending phone verification along with the donor
// registration payload submitted with it. The payload is persisted as raw
// JSON and handed back to the client once the code is verified.
type OTPVerification struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	Phone           string    `gorm:"size:10;index;not null" json:"phone"`
	DonorData       string    `gorm:"type:text" json:"-"`
	VerificationSID string    `gorm:"size:64;not null" json:"-"`
	Verified        bool      `gorm:"default:false" json:"verified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"-"`
}

// IsExpired reports whether the verification window has passed.
func (o *OTPVerification) IsExpired() bool {
	return time.Since(o.CreatedAt) > OTPExpiry
}

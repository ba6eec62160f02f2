package models

import "time"

// LinkStatus tracks one donor<->request link through its lifecycle.
type LinkStatus string

const (
	LinkPending  LinkStatus = "pending"
	LinkAccepted LinkStatus = "accepted"
	LinkRejected LinkStatus = "rejected"
	LinkDonated  LinkStatus = "donated"
)

// IsValid reports whether s is a known link status.
func (s LinkStatus) IsValid() bool {
	switch s {
	case LinkPending, LinkAccepted, LinkRejected, LinkDonated:
		return true
	}
	return false
}

// CanTransitionTo reports whether a link may move from s to next.
// Rejected and donated are terminal.
func (s LinkStatus) CanTransitionTo(next LinkStatus) bool {
	switch s {
	case LinkPending:
		return next == LinkAccepted || next == LinkRejected
	case LinkAccepted:
		return next == LinkDonated
	}
	return false
}

// Urgency enum
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// OverallStatus is the request-level status derived from its links.
type OverallStatus string

const (
	OverallPending   OverallStatus = "pending"
	OverallFulfilled OverallStatus = "fulfilled"
	OverallExpired   OverallStatus = "expired"
)

// BloodRequest represents a submitted need for blood of a given type.
type BloodRequest struct {
	BaseModel
	Name             string    `gorm:"size:100;not null" json:"name" validate:"required"`
	BloodType        BloodType `gorm:"size:3;index;not null" json:"bloodType" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Gender           Gender    `gorm:"size:10;not null" json:"gender" validate:"required,oneof=male female other"`
	Phone            string    `gorm:"size:10;index;not null" json:"phone" validate:"required,len=10,numeric"`
	HospitalName     string    `gorm:"size:200" json:"hospitalName"`
	HospitalLocation string    `gorm:"size:200" json:"hospitalLocation"`
	Country          string    `gorm:"size:100;not null" json:"country" validate:"required"`
	State            string    `gorm:"size:100;not null" json:"state" validate:"required"`
	City             string    `gorm:"size:100;not null" json:"city" validate:"required"`
	Urgency          Urgency   `gorm:"size:10;default:'normal'" json:"urgency" validate:"omitempty,oneof=normal urgent emergency"`
	Reason           string    `gorm:"type:text" json:"reason"`

	// Donors this request has been sent to (request-side half of the
	// donor<->request link).
	DonorRequests []RequestDonorLink `gorm:"foreignKey:RequestID" json:"donorRequests,omitempty"`

	// OverallStatus is recomputed from DonorRequests before every persist;
	// it is never set independently.
	OverallStatus OverallStatus `gorm:"size:10;default:'pending'" json:"overallStatus"`
}

// RequestDonorLink is the request-side record of a donor this request was
// sent to. Its counterpart on the donor side is DonorRequestLink.
type RequestDonorLink struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	RequestID string     `gorm:"size:36;index;not null" json:"-"`
	DonorID   string     `gorm:"size:36;index;not null" json:"donorId"`
	Status    LinkStatus `gorm:"size:10;default:'pending'" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	Donor *Donor `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
}

// ComputeOverallStatus derives the request-level status from a set of links:
// fulfilled if any link is accepted or donated, expired if there is at least
// one link and every link is rejected, pending otherwise.
func ComputeOverallStatus(links []RequestDonorLink) OverallStatus {
	for _, l := range links {
		if l.Status == LinkAccepted || l.Status == LinkDonated {
			return OverallFulfilled
		}
	}
	if len(links) > 0 {
		allRejected := true
		for _, l := range links {
			if l.Status != LinkRejected {
				allRejected = false
				break
			}
		}
		if allRejected {
			return OverallExpired
		}
	}
	return OverallPending
}

// RecomputeOverallStatus refreshes the derived status from the loaded links.
func (r *BloodRequest) RecomputeOverallStatus() {
	r.OverallStatus = ComputeOverallStatus(r.DonorRequests)
}

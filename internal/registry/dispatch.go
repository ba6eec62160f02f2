package registry

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
)

// Dispatcher creates donor<->request links and propagates status changes
// across both registries. A link is one logical fact recorded in two places
// (the donor's list and the request's list); every paired write here runs
// inside a single transaction so a reader never observes a half-applied link.
type Dispatcher struct {
	DB       *gorm.DB
	Donors   *DonorRegistry
	Requests *RequestRegistry
}

// NewDispatcher creates a new Dispatcher over the shared database handle.
func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{
		DB:       db,
		Donors:   NewDonorRegistry(db),
		Requests: NewRequestRegistry(db),
	}
}

// DispatchToDonors links the request to every donor in donorIDs that is not
// already linked, with both sides starting as pending. Returns the number of
// donors newly linked; already-linked donors are skipped, not an error.
func (d *Dispatcher) DispatchToDonors(requestID string, donorIDs []string) (int, error) {
	if _, err := d.Requests.FindByID(requestID, false); err != nil {
		return 0, err
	}
	linked, err := d.Requests.LinkedDonorIDs(requestID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, donorID := range donorIDs {
		if linked[donorID] {
			continue
		}
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			if _, err := d.Donors.WithTx(tx).LinkRequest(donorID, requestID); err != nil {
				return err
			}
			_, err := d.Requests.WithTx(tx).LinkDonor(requestID, donorID)
			return err
		})
		if err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// DispatchToDonor links the request to one specific donor. Unlike the
// broadcast path this enforces blood-type compatibility and treats an
// existing link as an error rather than a skip.
func (d *Dispatcher) DispatchToDonor(requestID, donorID string) error {
	req, err := d.Requests.FindByID(requestID, false)
	if err != nil {
		return err
	}
	donor, err := d.Donors.FindByID(donorID, false)
	if err != nil {
		return err
	}

	if !donor.BloodType.CanDonateTo(req.BloodType) {
		return ErrIncompatibleBloodType
	}

	linked, err := d.Requests.LinkedDonorIDs(requestID)
	if err != nil {
		return err
	}
	if linked[donorID] {
		return ErrAlreadyLinked
	}

	return d.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := d.Donors.WithTx(tx).LinkRequest(donorID, requestID); err != nil {
			return err
		}
		_, err := d.Requests.WithTx(tx).LinkDonor(requestID, donorID)
		return err
	})
}

// UpdateStatus moves an existing link to a new status on both sides.
// Transition legality is enforced here, centrally: pending may become
// accepted or rejected, accepted may become donated, and rejected and
// donated are terminal. A donated transition fires the donor's
// donation-count and availability side effects.
func (d *Dispatcher) UpdateStatus(requestID, donorID string, status models.LinkStatus) error {
	if status != models.LinkAccepted && status != models.LinkRejected && status != models.LinkDonated {
		return ErrInvalidStatus
	}
	if _, err := d.Donors.FindByID(donorID, false); err != nil {
		return err
	}

	current, err := d.Donors.LinkStatus(donorID, requestID)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(status) {
		return ErrInvalidTransition
	}

	return d.DB.Transaction(func(tx *gorm.DB) error {
		if err := d.Donors.WithTx(tx).SetRequestStatus(donorID, requestID, status); err != nil {
			return err
		}
		return d.Requests.WithTx(tx).SetDonorStatus(requestID, donorID, status)
	})
}

// ConfirmDonation records that the donor gave blood for this request. It is
// equivalent to UpdateStatus with donated; because donated is terminal, the
// donation side effects fire exactly once per link.
func (d *Dispatcher) ConfirmDonation(requestID, donorID string) error {
	return d.UpdateStatus(requestID, donorID, models.LinkDonated)
}

// FulfillRequest marks the donor as having donated for this request even
// when no prior link exists, synthesizing a donated entry on both sides.
// Used when a donation is recorded outside the normal accept flow.
func (d *Dispatcher) FulfillRequest(requestID, donorID string) error {
	if _, err := d.Requests.FindByID(requestID, false); err != nil {
		return err
	}
	donor, err := d.Donors.FindByID(donorID, false)
	if err != nil {
		return err
	}

	return d.DB.Transaction(func(tx *gorm.DB) error {
		alreadyDonated, err := upsertDonorLink(tx, donor.ID, requestID)
		if err != nil {
			return err
		}
		if err := upsertRequestLink(tx, requestID, donor.ID); err != nil {
			return err
		}
		// Donation side effects fire only on the first transition into
		// donated for this link.
		if !alreadyDonated {
			if err := NewDonorRegistry(tx).recordDonation(donor.ID); err != nil {
				return err
			}
		}
		return NewRequestRegistry(tx).refreshOverallStatus(requestID)
	})
}

// upsertDonorLink forces the donor-side entry into donated state, creating it
// if absent. Reports whether the entry was already donated.
func upsertDonorLink(tx *gorm.DB, donorID, requestID string) (bool, error) {
	var link models.DonorRequestLink
	err := tx.Where("donor_id = ? AND request_id = ?", donorID, requestID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		link = models.DonorRequestLink{
			DonorID:   donorID,
			RequestID: requestID,
			Status:    models.LinkDonated,
		}
		return false, tx.Create(&link).Error
	}
	if err != nil {
		return false, err
	}
	if link.Status == models.LinkDonated {
		return true, nil
	}
	link.Status = models.LinkDonated
	link.UpdatedAt = time.Now()
	return false, tx.Save(&link).Error
}

// upsertRequestLink forces the request-side entry into donated state,
// creating it if absent.
func upsertRequestLink(tx *gorm.DB, requestID, donorID string) error {
	var link models.RequestDonorLink
	err := tx.Where("request_id = ? AND donor_id = ?", requestID, donorID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		link = models.RequestDonorLink{
			RequestID: requestID,
			DonorID:   donorID,
			Status:    models.LinkDonated,
		}
		return tx.Create(&link).Error
	}
	if err != nil {
		return err
	}
	if link.Status == models.LinkDonated {
		return nil
	}
	link.Status = models.LinkDonated
	link.UpdatedAt = time.Now()
	return tx.Save(&link).Error
}

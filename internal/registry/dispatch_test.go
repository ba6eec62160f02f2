package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/varunSbabu/BloodLink/internal/models"
)

func TestDispatchToDonorsLinksBothSides(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	d1 := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	d2 := mustCreateDonor(t, db, "9000000002", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)

	sent, err := d.DispatchToDonors(req.ID, []string{d1.ID, d2.ID})
	require.NoError(t, err)
	require.Equal(t, 2, sent)

	loadedReq, err := d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Len(t, loadedReq.DonorRequests, 2)
	for _, link := range loadedReq.DonorRequests {
		require.Equal(t, models.LinkPending, link.Status)
	}

	loadedDonor, err := d.Donors.FindByID(d1.ID, true)
	require.NoError(t, err)
	require.Len(t, loadedDonor.BloodRequests, 1)
	require.Equal(t, models.LinkPending, loadedDonor.BloodRequests[0].Status)
}

func TestDispatchToDonorsSkipsAlreadyLinked(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	d1 := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	d2 := mustCreateDonor(t, db, "9000000002", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)

	sent, err := d.DispatchToDonors(req.ID, []string{d1.ID})
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	// Re-dispatch reaches only the new donor and creates no duplicate links.
	sent, err = d.DispatchToDonors(req.ID, []string{d1.ID, d2.ID})
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	loaded, err := d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Len(t, loaded.DonorRequests, 2)
}

func TestDispatchToDonorEnforcesCompatibility(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodABNeg)

	// A+ cannot donate to AB-.
	err := d.DispatchToDonor(req.ID, donor.ID)
	require.ErrorIs(t, err, ErrIncompatibleBloodType)

	compatible := mustCreateDonor(t, db, "9000000002", models.BloodONeg)
	require.NoError(t, d.DispatchToDonor(req.ID, compatible.ID))
	require.ErrorIs(t, d.DispatchToDonor(req.ID, compatible.ID), ErrAlreadyLinked)
}

func TestUpdateStatusAcceptThenDonate(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)
	_, err := d.DispatchToDonors(req.ID, []string{donor.ID})
	require.NoError(t, err)

	require.NoError(t, d.UpdateStatus(req.ID, donor.ID, models.LinkAccepted))

	loadedReq, err := d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.OverallFulfilled, loadedReq.OverallStatus)

	require.NoError(t, d.UpdateStatus(req.ID, donor.ID, models.LinkDonated))

	// Both sides of the link agree.
	status, err := d.Donors.LinkStatus(donor.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.LinkDonated, status)
	loadedReq, err = d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.LinkDonated, loadedReq.DonorRequests[0].Status)

	// Donation side effects on the donor record.
	loadedDonor, err := d.Donors.FindByID(donor.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, loadedDonor.DonationCount)
	require.False(t, loadedDonor.IsAvailable)
	require.Equal(t, models.LastDonationRecent, loadedDonor.LastDonation)
}

func TestUpdateStatusRejectsIllegalTransitions(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)
	_, err := d.DispatchToDonors(req.ID, []string{donor.ID})
	require.NoError(t, err)

	// pending cannot jump straight to donated.
	require.ErrorIs(t, d.UpdateStatus(req.ID, donor.ID, models.LinkDonated), ErrInvalidTransition)

	require.NoError(t, d.UpdateStatus(req.ID, donor.ID, models.LinkRejected))

	// rejected is terminal.
	require.ErrorIs(t, d.UpdateStatus(req.ID, donor.ID, models.LinkAccepted), ErrInvalidTransition)
	require.ErrorIs(t, d.UpdateStatus(req.ID, donor.ID, models.LinkDonated), ErrInvalidTransition)

	require.ErrorIs(t, d.UpdateStatus(req.ID, donor.ID, "banana"), ErrInvalidStatus)
	require.ErrorIs(t, d.UpdateStatus(req.ID, donor.ID, models.LinkPending), ErrInvalidStatus)
}

func TestUpdateStatusAllRejectedExpiresRequest(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	d1 := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	d2 := mustCreateDonor(t, db, "9000000002", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)
	_, err := d.DispatchToDonors(req.ID, []string{d1.ID, d2.ID})
	require.NoError(t, err)

	require.NoError(t, d.UpdateStatus(req.ID, d1.ID, models.LinkRejected))
	loaded, err := d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.OverallPending, loaded.OverallStatus)

	require.NoError(t, d.UpdateStatus(req.ID, d2.ID, models.LinkRejected))
	loaded, err = d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.OverallExpired, loaded.OverallStatus)
}

func TestConfirmDonationFiresOnce(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)
	_, err := d.DispatchToDonors(req.ID, []string{donor.ID})
	require.NoError(t, err)
	require.NoError(t, d.UpdateStatus(req.ID, donor.ID, models.LinkAccepted))

	require.NoError(t, d.ConfirmDonation(req.ID, donor.ID))
	require.ErrorIs(t, d.ConfirmDonation(req.ID, donor.ID), ErrInvalidTransition)

	loaded, err := d.Donors.FindByID(donor.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.DonationCount)
}

func TestFulfillRequestSynthesizesLink(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)

	// No prior dispatch: the donated link is created on both sides.
	require.NoError(t, d.FulfillRequest(req.ID, donor.ID))

	status, err := d.Donors.LinkStatus(donor.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.LinkDonated, status)

	loadedReq, err := d.Requests.FindByID(req.ID, false)
	require.NoError(t, err)
	require.Len(t, loadedReq.DonorRequests, 1)
	require.Equal(t, models.LinkDonated, loadedReq.DonorRequests[0].Status)
	require.Equal(t, models.OverallFulfilled, loadedReq.OverallStatus)

	loadedDonor, err := d.Donors.FindByID(donor.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, loadedDonor.DonationCount)
	require.False(t, loadedDonor.IsAvailable)

	// A second fulfill is a no-op for the donation count.
	require.NoError(t, d.FulfillRequest(req.ID, donor.ID))
	loadedDonor, err = d.Donors.FindByID(donor.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, loadedDonor.DonationCount)
}

func TestFulfillRequestUpgradesPendingLink(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)
	_, err := d.DispatchToDonors(req.ID, []string{donor.ID})
	require.NoError(t, err)

	require.NoError(t, d.FulfillRequest(req.ID, donor.ID))

	status, err := d.Donors.LinkStatus(donor.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.LinkDonated, status)

	loaded, err := d.Donors.FindByID(donor.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.DonationCount)
}

func TestDispatchUnknownIDs(t *testing.T) {
	db := setupDB(t)
	d := NewDispatcher(db)

	donor := mustCreateDonor(t, db, "9000000001", models.BloodAPos)
	req := mustCreateRequest(t, db, "9111111111", models.BloodAPos)

	_, err := d.DispatchToDonors("missing", []string{donor.ID})
	require.ErrorIs(t, err, ErrRequestNotFound)

	require.ErrorIs(t, d.DispatchToDonor(req.ID, "missing"), ErrDonorNotFound)
	require.ErrorIs(t, d.FulfillRequest("missing", donor.ID), ErrRequestNotFound)
	require.ErrorIs(t, d.FulfillRequest(req.ID, "missing"), ErrDonorNotFound)
	require.ErrorIs(t, d.UpdateStatus(req.ID, donor.ID, models.LinkAccepted), ErrLinkNotFound)
}

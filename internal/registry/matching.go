package registry

import "github.com/varunSbabu/BloodLink/internal/models"

// Matcher selects eligible donors for a blood request.
type Matcher struct {
	Donors *DonorRegistry
}

// NewMatcher creates a new Matcher.
func NewMatcher(donors *DonorRegistry) *Matcher {
	return &Matcher{Donors: donors}
}

// FindMatches returns available donors whose blood type is compatible with
// the requested type. Zero matches is a valid outcome, not an error.
func (m *Matcher) FindMatches(req *models.BloodRequest) ([]models.Donor, error) {
	compatible := models.CompatibleDonorTypes(req.BloodType)
	return m.Donors.FindByBloodTypes(compatible, true)
}

// FindExactMatches returns available donors whose blood type exactly equals
// the requested type. This is the narrower mode used when broadcasting a
// request; FindMatches is the full compatibility mode.
func (m *Matcher) FindExactMatches(req *models.BloodRequest) ([]models.Donor, error) {
	return m.Donors.FindByBloodType(req.BloodType, true)
}

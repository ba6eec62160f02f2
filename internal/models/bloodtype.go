package models

// BloodType is one of the eight ABO/Rh blood groups.
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// ValidBloodTypes lists every accepted blood group, in chart order.
var ValidBloodTypes = []BloodType{
	BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
	BloodABPos, BloodABNeg, BloodOPos, BloodONeg,
}

// compatibilityChart maps a requested blood type to the donor types that may
// legally donate to it, per the standard transfusion compatibility chart.
var compatibilityChart = map[BloodType][]BloodType{
	BloodAPos:  {BloodAPos, BloodANeg, BloodOPos, BloodONeg},
	BloodANeg:  {BloodANeg, BloodONeg},
	BloodBPos:  {BloodBPos, BloodBNeg, BloodOPos, BloodONeg},
	BloodBNeg:  {BloodBNeg, BloodONeg},
	BloodABPos: {BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg},
	BloodABNeg: {BloodANeg, BloodBNeg, BloodABNeg, BloodONeg},
	BloodOPos:  {BloodOPos, BloodONeg},
	BloodONeg:  {BloodONeg},
}

// IsValid reports whether t is one of the eight ABO/Rh groups.
func (t BloodType) IsValid() bool {
	_, ok := compatibilityChart[t]
	return ok
}

// CompatibleDonorTypes returns the donor blood types that can donate to a
// patient of the requested type. Unknown types yield an empty slice; callers
// are expected to reject unknown types at input validation.
func CompatibleDonorTypes(requested BloodType) []BloodType {
	types := compatibilityChart[requested]
	out := make([]BloodType, len(types))
	copy(out, types)
	return out
}

// CanDonateTo reports whether blood of type t may be given to a patient of
// the requested type.
func (t BloodType) CanDonateTo(requested BloodType) bool {
	for _, dt := range compatibilityChart[requested] {
		if dt == t {
			return true
		}
	}
	return false
}

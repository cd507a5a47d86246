package registry

import (
	"github.com/trezcool/barangay/core"
)

var (
	genderTag  = "gender"
	genderText = "gender must be one of Male, Female or Other"

	errResidentIDExists = "a resident with this ID already exists"
	errHeadIDExists     = "a family head with this ID already exists"
	errHeadNotFound     = "family head not found"
)

// RegisterValidators registers the registry validation tags on v.
func RegisterValidators(v *core.Validator) {
	v.RegisterPredicate(genderTag, genderText, IsValidGender)
}

// IsValidGender reports whether g is one of the recorded genders.
func IsValidGender(g string) bool {
	for _, gender := range Genders {
		if g == gender {
			return true
		}
	}
	return false
}

func (nr *NewResident) Validate(v *core.Validator) core.ValidationResult {
	nr.ResidentID = core.CleanString(nr.ResidentID)
	nr.FamilyHeadID = core.CleanString(nr.FamilyHeadID)
	nr.clean()
	return v.Check(nr)
}

func (ur *UpdateResident) Validate(v *core.Validator) core.ValidationResult {
	ur.FamilyHeadID = core.CleanString(ur.FamilyHeadID)
	ur.clean()
	return v.Check(ur)
}

func (nh *NewFamilyHead) Validate(v *core.Validator) core.ValidationResult {
	nh.HeadID = core.CleanString(nh.HeadID)
	nh.clean()
	return v.Check(nh)
}

func (uh *UpdateFamilyHead) Validate(v *core.Validator) core.ValidationResult {
	uh.clean()
	return v.Check(uh)
}

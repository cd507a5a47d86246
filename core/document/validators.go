package document

import (
	"github.com/trezcool/barangay/core"
)

var (
	typeTag      = "documenttype"
	typeText     = "documentType must be one of barangay-clearance, residency, indigency, good-conduct or business-permit"
	statusTag    = "documentstatus"
	statusText   = "status must be one of pending, approved, completed or rejected"
	deliveryTag  = "deliveryoption"
	deliveryText = "deliveryOption must be one of pickup, email or delivery"

	errResidentNotFound   = "Resident ID not found"
	errResidentIDRequired = "residentId is required"
	errEmailRequired      = "contactEmail is required for email delivery"
)

// RegisterValidators registers the document request validation tags on v.
func RegisterValidators(v *core.Validator) {
	v.RegisterPredicate(typeTag, typeText, IsValidType)
	v.RegisterPredicate(statusTag, statusText, IsValidStatus)
	v.RegisterPredicate(deliveryTag, deliveryText, IsValidDeliveryOption)
}

func IsValidType(t string) bool             { return oneOf(t, Types) }
func IsValidStatus(s string) bool           { return oneOf(s, Statuses) }
func IsValidDeliveryOption(opt string) bool { return oneOf(opt, DeliveryOptions) }

func oneOf(s string, values []string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (nr *NewRequest) Validate(v *core.Validator) core.ValidationResult {
	nr.clean()
	res := v.Check(nr)
	if nr.DeliveryOption == DeliveryEmail && nr.ContactEmail == "" {
		res.Add("contactEmail", "required", errEmailRequired)
	}
	return res
}

func (su *StatusUpdate) Validate(v *core.Validator) core.ValidationResult {
	su.clean()
	return v.Check(su)
}

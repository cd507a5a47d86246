// Package registry manages the resident and family head records.
package registry

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
)

// Genders
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"

	TypeResident   = "Resident"
	TypeFamilyHead = "Family Head"

	residentIDPrefix = "RES"
	headIDPrefix     = "FH"
)

var Genders = []string{GenderMale, GenderFemale, GenderOther}

type (
	// Person holds the fields shared by residents and family heads.
	Person struct {
		FirstName        string     `bson:"firstName" json:"firstName"`
		LastName         string     `bson:"lastName" json:"lastName"`
		Gender           string     `bson:"gender" json:"gender"`
		BirthDate        *time.Time `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
		Address          string     `bson:"address,omitempty" json:"address,omitempty"`
		ContactNumber    string     `bson:"contactNumber,omitempty" json:"contactNumber,omitempty"`
		RegistrationDate time.Time  `bson:"registrationDate" json:"registrationDate"`
		QRCode           string     `bson:"qrCode,omitempty" json:"qrCode,omitempty"`
	}

	Resident struct {
		ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
		ResidentID   string             `bson:"residentId" json:"residentId"`
		FamilyHeadID string             `bson:"familyHeadId,omitempty" json:"familyHeadId,omitempty"`
		Type         string             `bson:"type" json:"type"`
		Person       `bson:",inline"`
	}

	FamilyHead struct {
		ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
		HeadID string             `bson:"headId" json:"headId"`
		Type   string             `bson:"type" json:"type"`
		Person `bson:",inline"`
	}

	// PersonInput is the request payload shared by the create and update operations.
	PersonInput struct {
		FirstName        string `json:"firstName" yaml:"firstName" validate:"required,max=100"`
		LastName         string `json:"lastName" yaml:"lastName" validate:"required,max=100"`
		Gender           string `json:"gender" yaml:"gender" validate:"required,gender"`
		BirthDate        string `json:"birthDate" yaml:"birthDate" validate:"omitempty,date"`
		Address          string `json:"address" yaml:"address" validate:"max=255"`
		ContactNumber    string `json:"contactNumber" yaml:"contactNumber" validate:"max=30"`
		RegistrationDate string `json:"registrationDate" yaml:"registrationDate" validate:"omitempty,date"`
		QRCode           string `json:"qrCode" yaml:"qrCode"`
	}

	NewResident struct {
		ResidentID   string `json:"residentId" yaml:"residentId" validate:"omitempty,recordid"`
		FamilyHeadID string `json:"familyHeadId" yaml:"familyHeadId" validate:"omitempty,recordid"`
		PersonInput  `yaml:",inline"`
	}

	UpdateResident struct {
		FamilyHeadID string `json:"familyHeadId" validate:"omitempty,recordid"`
		PersonInput
	}

	NewFamilyHead struct {
		HeadID      string `json:"headId" yaml:"headId" validate:"omitempty,recordid"`
		PersonInput `yaml:",inline"`
	}

	UpdateFamilyHead struct {
		PersonInput
	}

	QueryFilter struct {
		FamilyHeadID string            `query:"familyHeadId"`
		Ordering     []core.DBOrdering `query:"-" json:"-"`
	}
)

func (pi *PersonInput) clean() {
	pi.FirstName = core.CleanString(pi.FirstName)
	pi.LastName = core.CleanString(pi.LastName)
	pi.Gender = core.CleanString(pi.Gender)
	pi.Address = core.CleanString(pi.Address)
	pi.ContactNumber = core.CleanString(pi.ContactNumber)
}

// apply copies the validated input onto p.
func (pi PersonInput) apply(p *Person, now time.Time) {
	p.FirstName = pi.FirstName
	p.LastName = pi.LastName
	p.Gender = pi.Gender
	p.BirthDate, _ = core.ParseOptionalDate(pi.BirthDate)
	p.Address = pi.Address
	p.ContactNumber = pi.ContactNumber
	if pi.QRCode != "" {
		p.QRCode = pi.QRCode
	}
	if regDate, _ := core.ParseOptionalDate(pi.RegistrationDate); regDate != nil {
		p.RegistrationDate = *regDate
	} else if p.RegistrationDate.IsZero() {
		p.RegistrationDate = now
	}
}

func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

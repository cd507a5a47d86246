// Package document handles the requests residents file for barangay documents (clearances, certificates, permits).
package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
)

// Document types
const (
	TypeClearance      = "barangay-clearance"
	TypeResidency      = "residency"
	TypeIndigency      = "indigency"
	TypeGoodConduct    = "good-conduct"
	TypeBusinessPermit = "business-permit"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Delivery options
const (
	DeliveryPickup   = "pickup"
	DeliveryEmail    = "email"
	DeliveryDelivery = "delivery"
)

const (
	requestIDPrefix = "REQ"
	statusTemplate  = "document_status"
)

var (
	Types           = []string{TypeClearance, TypeResidency, TypeIndigency, TypeGoodConduct, TypeBusinessPermit}
	Statuses        = []string{StatusPending, StatusApproved, StatusCompleted, StatusRejected}
	DeliveryOptions = []string{DeliveryPickup, DeliveryEmail, DeliveryDelivery}

	typeLabels = map[string]string{
		TypeClearance:      "Barangay Clearance",
		TypeResidency:      "Certificate of Residency",
		TypeIndigency:      "Certificate of Indigency",
		TypeGoodConduct:    "Certificate of Good Conduct",
		TypeBusinessPermit: "Business Permit",
	}
)

type (
	Request struct {
		ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
		RequestID         string             `bson:"requestId" json:"requestId"`
		ResidentID        string             `bson:"residentId" json:"residentId"`
		ResidentName      string             `bson:"residentName" json:"residentName"`
		DocumentType      string             `bson:"documentType" json:"documentType"`
		Purpose           string             `bson:"purpose" json:"purpose"`
		AdditionalDetails string             `bson:"additionalDetails,omitempty" json:"additionalDetails,omitempty"`
		Status            string             `bson:"status" json:"status"`
		RequestDate       time.Time          `bson:"requestDate" json:"requestDate"`
		DeliveryOption    string             `bson:"deliveryOption" json:"deliveryOption"`
		ContactEmail      string             `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
		ProcessingDate    *time.Time         `bson:"processingDate,omitempty" json:"processingDate,omitempty"`
		ProcessingNotes   string             `bson:"processingNotes,omitempty" json:"processingNotes,omitempty"`
		ProcessedBy       string             `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
		QRCode            string             `bson:"qrCode,omitempty" json:"qrCode,omitempty"`
	}

	NewRequest struct {
		ResidentID        string `json:"residentId" validate:"omitempty,recordid"`
		ResidentName      string `json:"residentName" validate:"max=200"`
		DocumentType      string `json:"documentType" validate:"required,documenttype"`
		Purpose           string `json:"purpose" validate:"required,max=500"`
		AdditionalDetails string `json:"additionalDetails" validate:"max=2000"`
		DeliveryOption    string `json:"deliveryOption" validate:"required,deliveryoption"`
		ContactEmail      string `json:"contactEmail" validate:"omitempty,email"`
		QRCode            string `json:"qrCode"`
	}

	StatusUpdate struct {
		Status          string `json:"status" validate:"required,documentstatus"`
		ProcessingNotes string `json:"processingNotes" validate:"max=2000"`
	}

	QueryFilter struct {
		Status string `query:"status"`
	}

	// statusMailData feeds the document_status email template.
	statusMailData struct {
		ResidentName    string
		RequestID       string
		DocumentType    string
		Status          string
		ProcessingNotes string
	}
)

// TypeLabel returns the display name of a document type.
func TypeLabel(t string) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return t
}

func (nr *NewRequest) clean() {
	nr.ResidentID = core.CleanString(nr.ResidentID)
	nr.ResidentName = core.CleanString(nr.ResidentName)
	nr.DocumentType = core.CleanString(nr.DocumentType, true /* lower */)
	nr.Purpose = core.CleanString(nr.Purpose)
	nr.AdditionalDetails = core.CleanString(nr.AdditionalDetails)
	nr.DeliveryOption = core.CleanString(nr.DeliveryOption, true /* lower */)
	nr.ContactEmail = core.CleanString(nr.ContactEmail, true /* lower */)
}

func (su *StatusUpdate) clean() {
	su.Status = core.CleanString(su.Status, true /* lower */)
	su.ProcessingNotes = core.CleanString(su.ProcessingNotes)
}

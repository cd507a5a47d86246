// Package shared wires the domain services used by both the API server and the admin CLI.
package shared

import (
	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/announcement"
	"github.com/trezcool/barangay/core/dashboard"
	"github.com/trezcool/barangay/core/document"
	"github.com/trezcool/barangay/core/event"
	"github.com/trezcool/barangay/core/registry"
	"github.com/trezcool/barangay/core/user"
)

type Services struct {
	Validator     *core.Validator
	Users         *user.Service
	Registry      *registry.Service
	Announcements *announcement.Service
	Events        *event.Service
	Documents     *document.Service
	Dashboard     *dashboard.Service
}

// NewValidator returns a core.Validator knowing every domain tag.
func NewValidator() *core.Validator {
	v := core.NewValidator()
	user.RegisterValidators(v)
	registry.RegisterValidators(v)
	announcement.RegisterValidators(v)
	event.RegisterValidators(v)
	document.RegisterValidators(v)
	return v
}

// NewServices builds the domain services on top of store.
// rec may be nil.
func NewServices(store core.Store, mailSvc core.EmailService, rec dashboard.Recorder) *Services {
	v := NewValidator()
	regSvc := registry.NewService(store, v)
	return &Services{
		Validator:     v,
		Users:         user.NewService(store, regSvc, v),
		Registry:      regSvc,
		Announcements: announcement.NewService(store, v),
		Events:        event.NewService(store, v),
		Documents:     document.NewService(store, regSvc, mailSvc, v),
		Dashboard:     dashboard.NewService(store, rec),
	}
}

// Package user manages the accounts allowed to sign in: admins, and residents linked to their record.
package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
)

var pwdHashCost = bcrypt.DefaultCost

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username   string             `bson:"username" json:"username"`
	Password   string             `bson:"password" json:"-"` // bcrypt hash
	Name       string             `bson:"name" json:"name"`
	Role       auth.Role          `bson:"role" json:"role"`
	ResidentID string             `bson:"residentId,omitempty" json:"residentId,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// HashPassword returns the bcrypt hash of pwd. Callers store the hash, never pwd.
func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), pwdHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares pwd with the stored hash.
func CheckPassword(hash, pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pwd))
}

func (u User) Identity() auth.Identity {
	return auth.Identity{
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		ResidentID: u.ResidentID,
	}
}

func (u User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	ChangePassword struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required"`
	}

	// Registration is the sign-up of a resident who already has a resident record.
	Registration struct {
		Username   string `json:"username" validate:"required,min=3,max=50,alphanum_"`
		Password   string `json:"password" validate:"required"`
		Name       string `json:"name" validate:"required,max=200"`
		ResidentID string `json:"residentId" validate:"required,recordid"`
	}

	// NewUser is used by the admin tools to create any kind of account.
	NewUser struct {
		Username   string    `json:"username" yaml:"username" validate:"required,min=3,max=50,alphanum_"`
		Password   string    `json:"password" yaml:"password" validate:"required"`
		Name       string    `json:"name" yaml:"name" validate:"required,max=200"`
		Role       auth.Role `json:"role" yaml:"role" validate:"required,role"`
		ResidentID string    `json:"residentId" yaml:"residentId" validate:"omitempty,recordid"`
	}

	ResidentAccount struct {
		HasAccount bool `json:"hasAccount"`
	}
)

func (lr *LoginRequest) clean() {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
}

func (r *Registration) clean() {
	r.Username = core.CleanString(r.Username, true /* lower */)
	r.Name = core.CleanString(r.Name)
	r.ResidentID = core.CleanString(r.ResidentID)
}

func (nu *NewUser) clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.ResidentID = core.CleanString(nu.ResidentID)
}

package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
)

var (
	roleTag  = "role"
	roleText = "role must be one of admin or resident"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the username or name"

	errInvalidCredentials = "Invalid username or password"
	errWrongPassword      = "Current password is incorrect"
	errUsernameExists     = "Username already exists"
	errResidentNotFound   = "Resident ID not found"
	errResidentHasAccount = "This resident already has an account"
	errResidentIDRequired = "resident accounts must be linked to a resident ID"
)

// RegisterValidators registers the account validation tags on v.
func RegisterValidators(v *core.Validator) {
	v.RegisterPredicate(roleTag, roleText, func(r string) bool { return auth.Role(r).IsValid() })

	v.Validate.RegisterStructValidation(userStructValidation, Registration{}, NewUser{})
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation applies the password policy to the structs carrying a new password.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case Registration:
		validatePassword(usr.Password, usr.Name, usr.Username, sl)
	case NewUser:
		validatePassword(usr.Password, usr.Name, usr.Username, sl)
	}
}

// validatePassword applies the password policy to pwd:
// - minLen: 6
// - no whitespace
// - no similarity with the username or name
func validatePassword(pwd, name, uname string, sl validator.StructLevel) {
	if pwd == "" {
		return // reported by `required`
	}
	if tag := PasswordPolicyViolation(pwd, name, uname); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// PasswordPolicyViolation returns the tag of the first password rule pwd breaks, or "".
func PasswordPolicyViolation(pwd, name, uname string) string {
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).Ratio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, uname) >= pwdMaxSim {
		return pwdAttrSimTag
	}
	return ""
}

func policyText(tag string) string {
	switch tag {
	case pwdMinLenTag:
		return pwdMinLenText
	case pwdNoSpaceTag:
		return pwdNoSpaceText
	default:
		return pwdAttrSimText
	}
}

func (lr *LoginRequest) Validate(v *core.Validator) core.ValidationResult {
	lr.clean()
	return v.Check(lr)
}

func (cp *ChangePassword) Validate(v *core.Validator, usr User) core.ValidationResult {
	res := v.Check(cp)
	if cp.NewPassword != "" {
		if tag := PasswordPolicyViolation(cp.NewPassword, usr.Name, usr.Username); tag != "" {
			res.Add("newPassword", tag, policyText(tag))
		}
	}
	return res
}

func (r *Registration) Validate(v *core.Validator) core.ValidationResult {
	r.clean()
	return v.Check(r)
}

func (nu *NewUser) Validate(v *core.Validator) core.ValidationResult {
	nu.clean()
	res := v.Check(nu)
	if nu.Role == auth.RoleResident && nu.ResidentID == "" {
		res.Add("residentId", "required", errResidentIDRequired)
	}
	return res
}

package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
)

type (
	// ResidentChecker tells whether a resident record exists.
	ResidentChecker interface {
		ResidentExists(ctx context.Context, residentID string) (bool, error)
	}

	Service struct {
		store     core.Store
		residents ResidentChecker
		validator *core.Validator
		now       func() time.Time
	}
)

var _ auth.UserChecker = (*Service)(nil)

func NewService(store core.Store, residents ResidentChecker, validator *core.Validator) *Service {
	return &Service{
		store:     store,
		residents: residents,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	var usr User
	err := svc.store.FindOne(ctx, core.CollUsers, core.Filter{"username": core.CleanString(uname, true /* lower */)}, &usr)
	return usr, err
}

func (svc *Service) UsernameExists(ctx context.Context, uname string) (bool, error) {
	if _, err := svc.GetByUsername(ctx, uname); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *Service) residentHasAccount(ctx context.Context, residentID string) (bool, error) {
	var usr User
	if err := svc.store.FindOne(ctx, core.CollUsers, core.Filter{"residentId": residentID}, &usr); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Authenticate checks the credentials of a login attempt.
func (svc *Service) Authenticate(ctx context.Context, lr LoginRequest) (User, error) {
	if err := lr.Validate(svc.validator).Err(); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByUsername(ctx, lr.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return User{}, core.NewValidationError(errors.New(errInvalidCredentials))
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err := CheckPassword(usr.Password, lr.Password); err != nil {
		return User{}, core.NewValidationError(errors.New(errInvalidCredentials))
	}
	return usr, nil
}

func (svc *Service) ChangePassword(ctx context.Context, uname string, cp ChangePassword) error {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return errors.Wrap(err, "finding user by username")
	}
	if err := cp.Validate(svc.validator, usr).Err(); err != nil {
		return err
	}
	if err := CheckPassword(usr.Password, cp.CurrentPassword); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "currentPassword", Error: errWrongPassword})
	}
	return svc.setPassword(ctx, usr, cp.NewPassword)
}

// ResetPassword sets a new password without knowing the current one.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if tag := PasswordPolicyViolation(pwd, usr.Name, usr.Username); tag != "" {
		res := core.ValidationResult{}
		res.Add("password", tag, policyText(tag))
		return res.Err()
	}
	return svc.setPassword(ctx, usr, pwd)
}

func (svc *Service) setPassword(ctx context.Context, usr User, pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.Password = hash
	if err := svc.store.ReplaceOne(ctx, core.CollUsers, core.Filter{"username": usr.Username}, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

// Register creates the account of an existing resident.
func (svc *Service) Register(ctx context.Context, reg Registration) (User, error) {
	res := reg.Validate(svc.validator)
	if !res.Valid {
		return User{}, res.Err()
	}
	if err := svc.checkAccount(ctx, reg.Username, reg.ResidentID, &res); err != nil {
		return User{}, err
	}
	if err := res.Err(); err != nil {
		return User{}, err
	}

	return svc.create(ctx, User{
		Username:   reg.Username,
		Name:       reg.Name,
		Role:       auth.RoleResident,
		ResidentID: reg.ResidentID,
	}, reg.Password)
}

// Create adds an account of any role.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	res := nu.Validate(svc.validator)
	if !res.Valid {
		return User{}, res.Err()
	}
	residentID := nu.ResidentID
	if nu.Role != auth.RoleResident {
		residentID = ""
	}
	if err := svc.checkAccount(ctx, nu.Username, residentID, &res); err != nil {
		return User{}, err
	}
	if err := res.Err(); err != nil {
		return User{}, err
	}

	return svc.create(ctx, User{
		Username:   nu.Username,
		Name:       nu.Name,
		Role:       nu.Role,
		ResidentID: residentID,
	}, nu.Password)
}

// CheckResident tells whether the resident already has an account; unknown residents give core.ErrNotFound.
func (svc *Service) CheckResident(ctx context.Context, residentID string) (ResidentAccount, error) {
	residentID = core.CleanString(residentID)
	found, err := svc.residents.ResidentExists(ctx, residentID)
	if err != nil {
		return ResidentAccount{}, errors.Wrap(err, "checking resident")
	}
	if !found {
		return ResidentAccount{}, core.ErrNotFound
	}
	has, err := svc.residentHasAccount(ctx, residentID)
	if err != nil {
		return ResidentAccount{}, errors.Wrap(err, "checking resident account")
	}
	return ResidentAccount{HasAccount: has}, nil
}

// checkAccount adds the uniqueness and resident link violations of a new account to res.
func (svc *Service) checkAccount(ctx context.Context, uname, residentID string, res *core.ValidationResult) error {
	exists, err := svc.UsernameExists(ctx, uname)
	if err != nil {
		return errors.Wrap(err, "checking username")
	}
	if exists {
		res.Add("username", "unique", errUsernameExists)
	}
	if residentID == "" {
		return nil
	}

	found, err := svc.residents.ResidentExists(ctx, residentID)
	if err != nil {
		return errors.Wrap(err, "checking resident")
	}
	if !found {
		res.Add("residentId", "exists", errResidentNotFound)
		return nil
	}
	has, err := svc.residentHasAccount(ctx, residentID)
	if err != nil {
		return errors.Wrap(err, "checking resident account")
	}
	if has {
		res.Add("residentId", "unique", errResidentHasAccount)
	}
	return nil
}

func (svc *Service) create(ctx context.Context, usr User, pwd string) (User, error) {
	hash, err := HashPassword(pwd)
	if err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.ID = primitive.NewObjectID()
	usr.Password = hash
	usr.CreatedAt = svc.now()

	if _, err := svc.store.InsertOne(ctx, core.CollUsers, usr); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "username", Error: errUsernameExists})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

package main

import (
	"context"

	"github.com/trezcool/barangay/apps"
	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/user"
)

// addUser creates an admin account, or a resident account linked to residentID.
func (cli *commandLine) addUser(uname, name, pwd string, isAdmin bool, residentID string) error {
	nu := user.NewUser{
		Username:   uname,
		Password:   pwd,
		Name:       name,
		Role:       auth.RoleResident,
		ResidentID: residentID,
	}
	if isAdmin {
		nu.Role = auth.RoleAdmin
	} else if residentID == "" {
		return apps.NewArgumentError("-resident is required for non-admin accounts")
	}
	_, err := cli.svcs.Users.Create(context.Background(), nu)
	return err
}

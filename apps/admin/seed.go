package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/barangay/core/registry"
	"github.com/trezcool/barangay/core/user"
)

type seedData struct {
	FamilyHeads []registry.NewFamilyHead `yaml:"familyHeads"`
	Residents   []registry.NewResident   `yaml:"residents"`
	Users       []user.NewUser           `yaml:"users"`
}

// seed loads the records listed in a YAML file. Family heads go first so residents can reference them.
func (cli *commandLine) seed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var data seedData
	if err = yaml.Unmarshal(raw, &data); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	ctx := context.Background()
	for i, nh := range data.FamilyHeads {
		if _, err = cli.svcs.Registry.CreateFamilyHead(ctx, nh); err != nil {
			return errors.Wrapf(err, "familyHeads[%d]", i)
		}
	}
	for i, nr := range data.Residents {
		if _, err = cli.svcs.Registry.CreateResident(ctx, nr); err != nil {
			return errors.Wrapf(err, "residents[%d]", i)
		}
	}
	for i, nu := range data.Users {
		if _, err = cli.svcs.Users.Create(ctx, nu); err != nil {
			return errors.Wrapf(err, "users[%d]", i)
		}
	}
	logger.Printf("seeded %d family heads, %d residents, %d users", len(data.FamilyHeads), len(data.Residents), len(data.Users))
	return nil
}

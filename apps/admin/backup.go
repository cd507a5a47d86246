package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/trezcool/barangay/core/auth"
)

var cliIdentity = auth.Identity{Username: "admin-cli", Name: "Admin CLI", Role: auth.RoleAdmin}

// backup writes the export to out, or to stdout when out is empty.
func (cli *commandLine) backup(out string) error {
	backup, err := cli.svcs.Dashboard.Backup(context.Background(), cliIdentity)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(backup)
}

func (cli *commandLine) ensureIndexes() error {
	return cli.store.EnsureIndexes(context.Background())
}

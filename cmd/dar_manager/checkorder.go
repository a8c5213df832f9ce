package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/derr"
)

// newCheckOrderCommand verifies that every path's data/EA dates
// increase monotonically with archive number, warning (via dlog, inside
// dardb.CheckOrder) on the first violation found in the pass only.
func (a *app) newCheckOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkorder",
		Short: "verify the database's per-path dates are monotonic with archive number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 0, "checkorder"); err != nil {
				return err
			}
			return a.runCheckOrder()
		},
	}
	return cmd
}

func (a *app) runCheckOrder() error {
	db, err := a.loadDB(context.Background())
	if err != nil {
		return err
	}
	ok, err := db.CheckOrder()
	if err != nil {
		return err
	}
	if !ok {
		return derr.E(derr.Data, fmt.Sprintf("dar_manager: checkorder: order violations found in %s", a.database))
	}
	return nil
}

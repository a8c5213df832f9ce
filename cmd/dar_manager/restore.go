package main

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/dardb"
	"github.com/dar-go/dar/dartime"
	"github.com/dar-go/dar/derr"
)

// newRestoreCommand plans a multi-archive restore with dardb.PlanRestore,
// then drives it: i_database::restore's "invoke dar once per archive"
// side, which dardb itself has no process-execution concern for. Each
// RestoreStep becomes one `dar extract` invocation against db.DarPath
// (falling back to the sibling "dar" binary on $PATH), scoped to that
// step's paths via repeated --include flags, plus db.Options passed
// through verbatim.
func (a *app) newRestoreCommand() *cobra.Command {
	var target string
	var at string
	cmd := &cobra.Command{
		Use:   "restore <path...>",
		Short: "restore one or more paths by invoking dar once per archive that holds them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{derr.E(derr.Range, "dar_manager: restore: want at least one path")}
			}
			if target == "" {
				return usageError{derr.E(derr.Range, "dar_manager: restore: --target is required")}
			}
			var atDate *dartime.Date
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return usageError{derr.E(derr.Range, err, "dar_manager: restore: invalid --at")}
				}
				d := dartime.FromTime(t)
				atDate = &d
			}
			return a.runRestore(args, target, atDate)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "directory to restore into")
	cmd.Flags().StringVar(&at, "at", "", "restore as of this RFC3339 date instead of most recent")
	return cmd
}

func (a *app) runRestore(paths []string, target string, at *dartime.Date) error {
	ctx := context.Background()
	db, err := a.loadDB(ctx)
	if err != nil {
		return err
	}
	plan, err := db.PlanRestore(paths, at)
	if err != nil {
		return err
	}
	for path, verdict := range plan.Unresolved {
		os.Stderr.WriteString("dar_manager: restore: " + path + ": " + verdict.String() + "\n")
	}
	for _, step := range plan.Steps {
		if err := a.runDarExtract(db, step, target); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runDarExtract(db *dardb.DB, step dardb.RestoreStep, target string) error {
	info := db.Archives[step.Archive-1]
	darPath := db.DarPath
	if darPath == "" {
		darPath = "dar"
	}
	args := []string{"extract"}
	args = append(args, db.Options...)
	for _, p := range step.DataPaths {
		args = append(args, "--include", p)
	}
	for _, p := range step.EAPaths {
		args = append(args, "--include", p)
	}
	args = append(args, info.Path, target)

	cmd := exec.Command(darPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return derr.E(derr.Script, err, "dar_manager: restore: dar extract "+info.Basename+" failed")
	}
	return nil
}

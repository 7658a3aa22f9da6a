package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shifts-tracker/internal/ingest"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var (
	importMonth        int
	importYear         int
	importEmployeeName string
	importEmployeeID   string
	importHidden       bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>",
	Short: "Import calendars and store their shifts",
	Long: `Import one calendar file, or every importable file under a directory, and
replace the stored shifts of each detected month. Every attempt is recorded
as an import job.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	addSourceFlags(importCmd, &importMonth, &importYear, &importEmployeeName, &importEmployeeID)
	importCmd.Flags().BoolVar(&importHidden, "hidden", false, "Include hidden files and directories")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	hint, err := periodHint(importMonth, importYear)
	if err != nil {
		return err
	}
	emp := employee(importEmployeeName, importEmployeeID)
	if emp == nil {
		emp = ingest.EmployeeFromConfig(cfg.Ingest)
	}
	fi, err := os.Stat(args[0])
	if err != nil {
		return err
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	importer, closeImporter, err := newImporter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeImporter()

	svc := ingest.NewService(importer,
		repository.NewShiftRepository(db, logger),
		repository.NewImportJobRepository(db, logger),
		ingest.WithLogger(logger),
		ingest.WithEmployee(emp),
		ingest.WithPeriodHint(hint),
	)

	if !fi.IsDir() {
		res, err := svc.IngestPath(ctx, args[0])
		if res.Status != "" {
			printOutcome(cmd, res)
		}
		return err
	}

	results, stats, err := svc.IngestDirectory(ctx, args[0], !importHidden)
	for _, r := range results {
		printOutcome(cmd, r)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "matched %d  stored %d  empty %d  failed %d\n", stats.Matched, stats.Succeeded, stats.Empty, stats.Failed)
	return err
}

func printOutcome(cmd *cobra.Command, o ingest.Outcome) {
	line := fmt.Sprintf("%-7s %s", o.Status, o.SourcePath)
	if o.Period != "" {
		line += fmt.Sprintf("  period %s  shifts %d", o.Period, o.Shifts)
	}
	if o.Err != "" {
		line += "  error: " + o.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	for _, w := range o.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "        warning: %s\n", w)
	}
}

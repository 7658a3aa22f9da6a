package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var (
	listFrom  string
	listTo    string
	jobsLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored shifts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent import jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "First date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "Last date (YYYY-MM-DD)")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Number of jobs to show")
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	shifts, err := repository.NewShiftRepository(db, logger).ListRange(ctx, listFrom, listTo)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTART\tEND\tTYPE\tCATEGORY\tHOURS\tORIGIN")
	for _, s := range shifts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n", s.Date, s.StartTime, s.EndTime, s.Location, s.Category(), s.Hours(), s.Origin)
	}
	return tw.Flush()
}

func runJobs(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	jobs, err := repository.NewImportJobRepository(db, logger).ListRecent(ctx, jobsLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tFORMAT\tMETHOD\tPERIOD\tSHIFTS\tSOURCE")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			j.StartedAt.Local().Format(time.DateTime), j.Status, j.Format, deref(j.Method), deref(j.Period), j.ShiftsFound, j.SourcePath)
	}
	return tw.Flush()
}

func deref(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

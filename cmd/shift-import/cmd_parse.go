package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/export"
	"github.com/joseph-ayodele/shifts-tracker/internal/ingest"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
)

var (
	parseMonth        int
	parseYear         int
	parseEmployeeName string
	parseEmployeeID   string
	parseJSON         bool
	parseXLSX         string
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Parse a calendar and print the reconciled shifts",
	Long: `Parse a calendar image, PDF roster or text file without storing anything.
Use "-" to read pasted text from stdin.

PDF rosters need --employee-name or --employee-id to pick a row.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	addSourceFlags(parseCmd, &parseMonth, &parseYear, &parseEmployeeName, &parseEmployeeID)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the full result as JSON")
	parseCmd.Flags().StringVar(&parseXLSX, "xlsx", "", "Also write the calendar workbook to this path")
}

func addSourceFlags(cmd *cobra.Command, month, year *int, name, id *string) {
	cmd.Flags().IntVar(month, "month", 0, "Month (1-12) when the source does not name one")
	cmd.Flags().IntVar(year, "year", 0, "Year when the source does not name one")
	cmd.Flags().StringVar(name, "employee-name", "", "Roster row to read from PDF rosters")
	cmd.Flags().StringVar(id, "employee-id", "", "Roster employee ID to read from PDF rosters")
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	in, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	if in.Hint, err = periodHint(parseMonth, parseYear); err != nil {
		return err
	}
	in.Employee = employee(parseEmployeeName, parseEmployeeID)

	importer, closeImporter, err := newImporter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeImporter()

	res, err := importer.Import(ctx, in)
	if err != nil {
		return err
	}

	if parseXLSX != "" {
		book, err := export.CalendarXLSX(res.Shifts, res.Period)
		if err != nil {
			return err
		}
		if err := os.WriteFile(parseXLSX, book, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", parseXLSX, err)
		}
	}

	out := cmd.OutOrStdout()
	if parseJSON {
		b, err := export.JSON(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	printResult(out, res)
	return nil
}

// readInput loads a file (or stdin for "-") as an import input.
func readInput(stdin io.Reader, arg string) (pipeline.Input, error) {
	if arg == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read stdin: %w", err)
		}
		return pipeline.Input{Text: string(b), Filename: "stdin"}, nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("read %s: %w", arg, err)
	}
	if !ingest.AllowedExt(filepath.Ext(arg)) && filepath.Ext(arg) != "" {
		return pipeline.Input{}, common.NewAppError("UNSUPPORTED_FORMAT", "unsupported file type "+filepath.Ext(arg), common.ErrUnsupportedFormat)
	}
	return pipeline.Input{Data: b, Filename: filepath.Base(arg)}, nil
}

func periodHint(month, year int) (*calendar.Period, error) {
	if month == 0 && year == 0 {
		return nil, nil
	}
	if month < 1 || month > 12 {
		return nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("--month %d out of range 1-12", month), common.ErrInvalidInput)
	}
	if year == 0 {
		year = now().Year()
	}
	p := calendar.NewPeriod(month-1, year)
	return &p, nil
}

func employee(name, id string) *pdftable.Employee {
	if name == "" && id == "" {
		return nil
	}
	return &pdftable.Employee{Name: name, ID: id}
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "period %s  method %s  shifts %d\n", res.Period.String(), res.Method, len(res.Shifts))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTART\tEND\tTYPE\tCONF\tVALID")
	for _, s := range res.Shifts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%t\n", s.Date, s.StartTime, s.EndTime, s.ShiftType, s.Confidence, s.IsValid)
	}
	_ = tw.Flush()
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

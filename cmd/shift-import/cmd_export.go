package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/export"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var (
	exportFormat string
	exportMonth  int
	exportYear   int
	exportFrom   string
	exportTo     string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored shifts as a calendar workbook or JSON",
	Example: `  shift-import export --month 3 --year 2025 --out marzo.xlsx
  shift-import export --format json --from 2025-03-01 --to 2025-03-31`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "xlsx or json")
	exportCmd.Flags().IntVar(&exportMonth, "month", 0, "Month (1-12) of the workbook, default current")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "Year of the workbook, default current")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First date (YYYY-MM-DD) for JSON exports")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last date (YYYY-MM-DD) for JSON exports")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file, default stdout for JSON")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	format := strings.ToLower(exportFormat)
	v := common.NewValidator().
		Field("format", format, common.OneOf("xlsx", "json"))
	if format == "json" {
		for name, d := range map[string]string{"from": exportFrom, "to": exportTo} {
			if d != "" {
				v.Field(name, d, common.ISODate)
			}
		}
	}
	if err := v.Error(); err != nil {
		return err
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(logger)
	svc := export.NewService(repository.NewShiftRepository(db, logger), logger)

	var data []byte
	out := exportOut
	switch format {
	case "xlsx":
		month := exportMonth
		if month == 0 {
			month = int(now().Month())
		}
		hint, err := periodHint(month, exportYear)
		if err != nil {
			return err
		}
		if data, err = svc.MonthXLSX(ctx, *hint); err != nil {
			return err
		}
		if out == "" {
			out = fmt.Sprintf("turnos-%s.xlsx", hint.String())
		}
	case "json":
		if data, err = svc.RangeJSON(ctx, exportFrom, exportTo); err != nil {
			return err
		}
		if out == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
	return nil
}

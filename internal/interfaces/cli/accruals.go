package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Docket/pkg/client"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// NewAccrualsCmd returns the docket accruals subcommand.
func NewAccrualsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accruals",
		Short: "Preview, inspect and export accruals",
		Long: `Accruals are the billing records raised for billable tasks. Totals are
kept per currency; VAT applies to the service fee, and to the official fee
only when requested.`,
	}

	cmd.AddCommand(
		newAccrualPreviewCmd(),
		newAccrualListCmd(),
		newAccrualGetCmd(),
		newAccrualStatusCmd(),
		newAccrualExportCmd(),
	)
	return cmd
}

func newAccrualPreviewCmd() *cobra.Command {
	var fee client.FeeInput

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compute accrual totals without storing anything",
		Example: `  docket accruals preview --official 100 --official-currency USD \
      --service 50 --service-currency TRY --vat 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fee.OfficialFee.Amount < 0 || fee.ServiceFee.Amount < 0 {
				return errors.New(errors.ErrCodeInvalidFee, "fees must not be negative")
			}

			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			totals, err := c.Accruals().Preview(ctx, fee)
			if err != nil {
				return err
			}
			return PrintResult(cmd, totalsView(totals))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&fee.OfficialFee.Amount, "official", 0, "official fee amount")
	f.StringVar(&fee.OfficialFee.Currency, "official-currency", "TRY", "official fee currency")
	f.Float64Var(&fee.ServiceFee.Amount, "service", 0, "service fee amount")
	f.StringVar(&fee.ServiceFee.Currency, "service-currency", "TRY", "service fee currency")
	f.Float64Var(&fee.VATRate, "vat", 0, "VAT rate in percent")
	f.BoolVar(&fee.ApplyVATToOfficial, "vat-official", false, "apply VAT to the official fee too")
	return cmd
}

// addFilterFlags registers the accrual filter flags on cmd. The returned
// func parses them.
func addFilterFlags(cmd *cobra.Command) func() (client.AccrualFilter, error) {
	var (
		taskID string
		status string
		from   string
		to     string
		limit  int
	)
	f := cmd.Flags()
	f.StringVar(&taskID, "task", "", "task id")
	f.StringVar(&status, "status", "", "status (unpaid, partially_paid, paid)")
	f.StringVar(&from, "from", "", "created on or after (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "created on or before (YYYY-MM-DD)")
	f.IntVar(&limit, "limit", 0, "maximum rows")

	return func() (client.AccrualFilter, error) {
		filter := client.AccrualFilter{TaskID: taskID, Status: status, Limit: limit}
		fromDate, err := parseDateFlag("from", from)
		if err != nil {
			return filter, err
		}
		toDate, err := parseDateFlag("to", to)
		if err != nil {
			return filter, err
		}
		if fromDate != nil {
			filter.From = *fromDate
		}
		if toDate != nil {
			filter.To = *toDate
		}
		if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
			return filter, errors.InvalidParam("--to must not be before --from")
		}
		if limit < 0 {
			return filter, errors.InvalidParam("--limit must not be negative")
		}
		return filter, nil
	}
}

func newAccrualListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accruals",
	}
	parseFilter := addFilterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter()
		if err != nil {
			return err
		}
		c, ctx, cancel, err := remote(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		list, err := c.Accruals().List(ctx, filter)
		if err != nil {
			return err
		}
		return PrintResult(cmd, accrualListView(list.Items))
	}
	return cmd
}

func newAccrualGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ACCRUAL_ID",
		Short: "Show an accrual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			a, err := c.Accruals().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, accrualView{a})
		},
	}
}

func newAccrualStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status ACCRUAL_ID STATUS",
		Short: "Record the payment state of an accrual",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			a, err := c.Accruals().UpdateStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return PrintResult(cmd, accrualView{a})
		},
	}
}

func newAccrualExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download accruals as an XLSX workbook",
	}
	parseFilter := addFilterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter()
		if err != nil {
			return err
		}
		c, ctx, cancel, err := remote(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		exp, err := c.Accruals().Export(ctx, filter)
		if err != nil {
			return err
		}

		name := filepath.Base(exp.Filename)
		target := outPath
		if target == "" {
			target = name
		}
		if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
			target = filepath.Join(target, name)
		}
		if err := os.WriteFile(target, exp.Data, 0o644); err != nil {
			return errors.Wrapf(err, errors.CodeInternal, "cannot write %s", target)
		}
		PrintSuccess(cmd, "wrote "+target)
		return nil
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output file or directory (default: server file name)")
	return cmd
}

//Personal.AI order the ending

package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Docket/pkg/client"
)

// NewCalendarCmd returns the docket calendar subcommand.
func NewCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Working-day calendar tools",
	}
	cmd.AddCommand(newDueDatesCmd())
	return cmd
}

func newDueDatesCmd() *cobra.Command {
	var (
		baseDate     string
		bulletinID   string
		bulletinDate string
		official     string
		operational  string
	)

	cmd := &cobra.Command{
		Use:   "due-dates TASK_TYPE",
		Short: "Preview the due dates a task type would be given",
		Long: `Compute the official and operational due dates of TASK_TYPE without creating
a task. Dates that fall on a weekend or holiday move to the next working day;
operational dates move back to the previous one.`,
		Example: `  docket calendar due-dates opposition --bulletin-date 2026-10-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.DueDateRequest{TaskType: args[0], BulletinID: bulletinID}
			var err error
			if req.BaseDate, err = parseDateFlag("base-date", baseDate); err != nil {
				return err
			}
			if req.BulletinDate, err = parseDateFlag("bulletin-date", bulletinDate); err != nil {
				return err
			}
			if req.OfficialDueDate, err = parseDateFlag("official", official); err != nil {
				return err
			}
			if req.OperationalDueDate, err = parseDateFlag("operational", operational); err != nil {
				return err
			}

			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			plan, err := c.Calendar().DueDates(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, planView{plan})
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseDate, "base-date", "", "date the periods run from (default: today)")
	f.StringVar(&bulletinID, "bulletin", "", "bulletin entry id (opposition types)")
	f.StringVar(&bulletinDate, "bulletin-date", "", "bulletin publication date (YYYY-MM-DD)")
	f.StringVar(&official, "official", "", "explicit official due date (YYYY-MM-DD)")
	f.StringVar(&operational, "operational", "", "explicit operational due date (YYYY-MM-DD)")
	return cmd
}

//Personal.AI order the ending

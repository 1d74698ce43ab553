package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Simplici0/advance/internal/pricing"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote the minimum and maximum payable for a principal",
	Long:  "Evaluates the configured fee schedule at its term bounds and, with --days, at a settlement after that many elapsed days.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		principal, err := principalFlag(cmd)
		if err != nil {
			return err
		}
		schedule, err := cfg.Fees.Schedule()
		if err != nil {
			return err
		}

		req := pricing.AdvancementRequest{Principal: principal, Schedule: schedule}
		if cmd.Flags().Changed("days") {
			days, _ := cmd.Flags().GetInt("days")
			req = req.SettlingAfter(days)
		}

		projection, err := pricing.Project(req)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		return writeQuote(cmd.OutOrStdout(), schedule, projection, asJSON)
	},
}

func init() {
	quoteCmd.Flags().String("principal", "", "amount advanced, e.g. 10000.00")
	quoteCmd.Flags().Int("days", 0, "elapsed days at settlement")
	quoteCmd.Flags().Bool("json", false, "print JSON instead of a table")
	_ = quoteCmd.MarkFlagRequired("principal")
	rootCmd.AddCommand(quoteCmd)
}

func principalFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("principal")
	principal, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "invalid --principal %q", raw)
	}
	return principal, nil
}

func writeQuote(w io.Writer, schedule pricing.FeeSchedule, p pricing.Projection, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SCENARIO\tDAYS\tINITIAL\tDAILY\tEXIT\tTOTAL PAYABLE\tTOTAL COST\n")
	row := func(name string, b pricing.CostBreakdown) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s %s\t%s\n",
			name, b.ElapsedDays,
			money(b.InitialCharge), money(b.DailyCharge), money(b.ExitCharge),
			money(b.TotalPayable), schedule.Currency(), money(b.TotalCost),
		)
	}
	row("minimum", p.Minimum)
	if p.Settlement != nil {
		row("settlement", *p.Settlement)
	}
	row("maximum", p.Maximum)
	return tw.Flush()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(pricing.MinorUnitPlaces)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/advance/internal/pricing"
)

var discloseCmd = &cobra.Command{
	Use:   "disclose",
	Short: "Print the pre-contract disclosure figures for a principal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		principal, err := principalFlag(cmd)
		if err != nil {
			return err
		}
		schedule, err := cfg.Fees.Schedule()
		if err != nil {
			return err
		}

		d, err := pricing.Disclose(schedule, principal)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		return writeDisclosure(cmd.OutOrStdout(), d, asJSON)
	},
}

func init() {
	discloseCmd.Flags().String("principal", "", "amount advanced, e.g. 10000.00")
	discloseCmd.Flags().Bool("json", false, "print JSON instead of a table")
	_ = discloseCmd.MarkFlagRequired("principal")
	rootCmd.AddCommand(discloseCmd)
}

func writeDisclosure(w io.Writer, d pricing.Disclosure, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Principal\t%s %s\n", money(d.Principal), d.Currency)
	fmt.Fprintf(tw, "Term\t%d to %d months (%d to %d days)\n", d.MinimumTermMonths, d.MaximumTermMonths, d.MinimumTermDays, d.MaximumTermDays)
	fmt.Fprintf(tw, "First-year charge\t%s\n", money(d.FirstYearCharge))
	fmt.Fprintf(tw, "Daily charge after first year\t%s\n", money(d.DailyCharge))
	fmt.Fprintf(tw, "Maximum daily interest\t%s\n", money(d.MaximumDailyInterest))
	fmt.Fprintf(tw, "Exit fee\t%s to %s\n", money(d.MinimumExitFee), money(d.MaximumExitFee))
	fmt.Fprintf(tw, "Total payable\t%s to %s\n", money(d.MinimumPayable), money(d.MaximumPayable))
	fmt.Fprintf(tw, "Representative payable (%d months)\t%s\n", d.RepresentativeTermMonths, money(d.RepresentativePayable))
	fmt.Fprintf(tw, "Representative cost\t%s\n", money(d.RepresentativeCost))
	fmt.Fprintf(tw, "APR\t%s%%\n", d.Apr.StringFixed(2))
	fmt.Fprintf(tw, "Cost per 100\t%s\n", d.CostPer100.StringFixed(2))
	return tw.Flush()
}

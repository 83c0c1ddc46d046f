package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/datasource"
)

func newBreakdownCmd(opts *rootOptions) *cobra.Command {
	var price, volume, user string

	cmd := &cobra.Command{
		Use:   "breakdown <code>",
		Short: "Split a trade into monthly delivery legs",
		Long: `Split a trade in a month, quarter or year contract into one leg per delivery month,
with delivery hours, energy and value per leg.

Example:
  tenor breakdown debq4_25 --price 80.25 --volume 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid --price %q: %w", price, err)
			}
			v, err := decimal.NewFromString(volume)
			if err != nil {
				return fmt.Errorf("invalid --volume %q: %w", volume, err)
			}

			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			legs, err := datasource.NewPlanner(a.svc).BreakDown(args[0], []datasource.Trade{{Price: p, Volume: v}}, user)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json() {
				return printJSON(out, legs)
			}
			total := decimal.Zero
			for _, l := range legs {
				fmt.Fprintf(out, "%s\t%s → %s\t%dh\t%s MWh\t%s\n",
					l.PeriodID, fmtDate(l.StartDate), fmtDate(l.EndDate), l.Hours, l.EnergyMWh, l.Value.StringFixed(2))
				total = total.Add(l.Value)
			}
			fmt.Fprintf(out, "total\t%s\n", total.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&price, "price", "0", "price per MWh")
	cmd.Flags().StringVar(&volume, "volume", "1", "volume in MW")
	cmd.Flags().StringVar(&user, "user", "cli", "recorded as creator")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/datasource"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "reconcile <code>",
		Short: "Check that planned label queries resolve back to the contract",
		Long: `Plan the absolute and relative fetches of a contract and check that every planned
label resolves back to the contract at both ends of its interval.

Example:
  tenor reconcile debq4_25 --from 2025-01-01 --to 2025-12-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parseRange(from, to)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			planner := datasource.NewPlanner(a.svc)
			dq, err := planner.DeliveryQuery(args[0], f, t)
			if err != nil {
				return err
			}
			lqs, err := planner.LabelQueries(args[0], f, t)
			if err != nil {
				return err
			}
			mismatches, err := planner.Reconcile(args[0], f, t)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json() {
				if err := printJSON(out, map[string]any{
					"delivery_query": dq,
					"label_queries":  lqs,
					"mismatches":     mismatches,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "absolute: %s months %v traded %s → %s\n", dq.Contract, dq.MonthIDs, fmtDate(dq.From), fmtDate(dq.To))
				for _, q := range lqs {
					fmt.Fprintf(out, "relative: %s %s %s traded %s → %s\n", q.Market, q.Product, q.Label, fmtDate(q.From), fmtDate(q.To))
				}
				for _, m := range mismatches {
					fmt.Fprintf(out, "MISMATCH: %s\n", m)
				}
			}

			if len(mismatches) > 0 {
				return fmt.Errorf("%d label intervals do not resolve to %s", len(mismatches), dq.Contract)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD, default --from)")
	return cmd
}

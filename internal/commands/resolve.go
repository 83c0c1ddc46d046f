package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/period/domain"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var date, granularity string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the reference period on a date",
		Long: `Show the nominal and effective reference period of a granularity on a date,
and the next date on which the reference moves.

Example:
  tenor resolve --date 2025-06-26 --granularity q`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			g, err := domain.ParseGranularity(granularity)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.ResolveReference(d, g)
			if err != nil {
				return err
			}
			next, err := a.svc.NextReferenceChange(d, g)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json() {
				return printJSON(out, map[string]any{
					"result":      res,
					"next_change": fmtDate(next),
				})
			}
			fmt.Fprintf(out, "date:        %s\n", fmtDate(res.Date))
			fmt.Fprintf(out, "nominal:     %s\n", res.NominalPeriod)
			fmt.Fprintf(out, "reference:   %s\n", res.ReferencePeriod)
			fmt.Fprintf(out, "transition:  %t (%d business days left)\n", res.InTransition, res.RemainingBusinessDays)
			fmt.Fprintf(out, "next change: %s\n", fmtDate(next))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "q", "m, q or y")
	return cmd
}

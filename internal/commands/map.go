package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/mapping"
)

func newMapCmd(opts *rootOptions) *cobra.Command {
	var from, to, user string
	var record bool

	cmd := &cobra.Command{
		Use:   "map <code>",
		Short: "Map a contract to relative labels over a date range",
		Long: `Map a contract to the relative labels it trades under between --from and --to.
With --record the mappings are stored in the configured database.

Example:
  tenor map debq4_25 --from 2025-06-24 --to 2025-07-01
  tenor map debq4_25 --from 2025-06-24 --to 2025-07-01 --record --user alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parseRange(from, to)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts, record)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				ms       []mapping.RelativePeriodMapping
				inserted int
			)
			if record {
				ms, inserted, err = a.svc.RecordMappings(cmd.Context(), args[0], f, t, user)
			} else {
				_, ms, err = a.svc.MapContract(args[0], f, t)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json() {
				return printJSON(out, ms)
			}
			for _, m := range ms {
				fmt.Fprintf(out, "%s → %s\t%s\t(reference %s)\n", fmtDate(m.Start), fmtDate(m.End), m.Label, m.ReferencePeriod)
			}
			if record {
				fmt.Fprintf(out, "recorded %d new of %d mappings\n", inserted, len(ms))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD, default --from)")
	cmd.Flags().BoolVar(&record, "record", false, "store the mappings")
	cmd.Flags().StringVar(&user, "user", "cli", "recorded as creator")
	return cmd
}

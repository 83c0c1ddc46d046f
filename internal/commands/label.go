package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/contract"
)

func newLabelCmd(opts *rootOptions) *cobra.Command {
	var date, market, product string

	cmd := &cobra.Command{
		Use:   "label <label>",
		Short: "Resolve a relative label to an absolute period or contract",
		Long: `Resolve a relative label such as q_1 on a date. With --market the contract code is printed.

Example:
  tenor label q_1 --date 2025-06-26
  tenor label m_-1 --date 2025-06-26 --market de --product peak`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if market == "" {
				p, err := a.svc.ResolveLabel(args[0], d)
				if err != nil {
					return err
				}
				if opts.json() {
					return printJSON(out, p)
				}
				fmt.Fprintf(out, "%s\t%s\n", p.ID(), p.Name())
				return nil
			}

			prod, err := contract.ParseProduct(product)
			if err != nil {
				return err
			}
			c, err := a.svc.ContractForLabel(market, prod, args[0], d)
			if err != nil {
				return err
			}
			if opts.json() {
				return printJSON(out, c)
			}
			fmt.Fprintf(out, "%s\t%s\n", c.Code, c.Period.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&market, "market", "", "market code, e.g. de")
	cmd.Flags().StringVar(&product, "product", "base", "base or peak")
	return cmd
}

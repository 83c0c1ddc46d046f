package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/contract"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <code>...",
		Short: "Decode contract codes",
		Long: `Decode one or more contract codes into market, product and delivery period.

Example:
  tenor parse debq4_25 FRPM11_2026 nlby_27`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			specs := make([]contract.ContractSpec, 0, len(args))
			for _, code := range args {
				c, err := a.svc.ParseContract(code)
				if err != nil {
					return err
				}
				specs = append(specs, c)
			}

			out := cmd.OutOrStdout()
			if opts.json() {
				return printJSON(out, specs)
			}
			for _, c := range specs {
				fmt.Fprintf(out, "%s\t%s %s %s\t%s → %s\t%s\n",
					c.Code, strings.ToUpper(c.Market), c.Product, c.Period.Name(),
					fmtDate(c.DeliveryStart), fmtDate(c.DeliveryEnd),
					strings.Join(a.svc.DeliveryMonths(c), ","))
			}
			return nil
		},
	}
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/period/domain"
)

// Global flags
type rootOptions struct {
	configFile string
	output     string
	verbose    bool
}

// NewRootCmd builds the tenor command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tenor",
		Short: "Energy futures tenor resolver",
		Long: `Tenor resolves energy futures contracts against the rolling reference period.

It decodes contract codes such as debq4_25, maps them to the relative labels
(q_1, m_2, ...) they trade under on each day, and turns labels back into contracts.

Examples:
  tenor parse debq4_25
  tenor resolve --date 2025-06-26 --granularity q
  tenor map debq4_25 --from 2025-06-24 --to 2025-07-01
  tenor label q_1 --date 2025-06-26 --market de
  tenor serve`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "config.yaml", "config file (YAML, optional)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text|json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newParseCmd(opts),
		newResolveCmd(opts),
		newMapCmd(opts),
		newLabelCmd(opts),
		newReconcileCmd(opts),
		newBreakdownCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) json() bool {
	return o.output == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDate parses YYYY-MM-DD, today (UTC) when s is empty.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return domain.DateOf(time.Now().UTC()), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// parseRange parses --from/--to; to defaults to from.
func parseRange(from, to string) (time.Time, time.Time, error) {
	f, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to == "" {
		return f, f, nil
	}
	t, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

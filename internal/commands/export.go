package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/export"
	clients "github.com/nholding/tenor/internal/repository"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "export <code>",
		Short: "Upload a contract's mapping snapshot to S3",
		Long: `Map a contract over --from/--to and upload the snapshot as JSON to
s3://<aws.s3_bucket>/<aws.s3_prefix>/<code>/<from>_<to>.json.
With --dry-run the snapshot is printed instead.

Example:
  tenor export debq4_25 --from 2025-06-01 --to 2025-09-30`,
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

			c, ms, err := a.svc.MapContract(args[0], f, t)
			if err != nil {
				return err
			}
			w, err := a.svc.Window(c.Granularity)
			if err != nil {
				return err
			}
			snap := export.NewSnapshot(c, w, f, t, ms, time.Now())

			if dryRun {
				return printJSON(cmd.OutOrStdout(), snap)
			}

			s3c, err := clients.NewS3Client(cmd.Context(), clients.NewConfig(a.cfg))
			if err != nil {
				return err
			}
			key, err := export.NewS3Exporter(s3c, a.cfg.AWS.S3Prefix).Export(cmd.Context(), snap)
			if err != nil {
				return err
			}

			a.log.WithFields(map[string]interface{}{
				"contract": c.Code,
				"bucket":   s3c.BucketName,
				"key":      key,
				"mappings": len(ms),
			}).Info("Exported mapping snapshot")
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", s3c.BucketName, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD, default --from)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the snapshot instead of uploading")
	return cmd
}

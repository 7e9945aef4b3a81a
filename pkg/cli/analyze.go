package cli

import (
	"github.com/bstardust/exif-analyzer/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAnalyzeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [flags] <root>",
		Short: "Analyze the images below a directory once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}

			cfg, err := loadConfig(cmd, v, root)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, afero.NewOsFs(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := p.connect(cmd.Context()); err != nil {
				return err
			}

			_, err = p.run(cmd.Context())
			return err
		},
	}

	addPipelineFlags(cmd)
	return cmd
}

// addPipelineFlags registers the flags shared by analyze and watch.
func addPipelineFlags(cmd *cobra.Command) {
	d := config.New()
	f := cmd.Flags()

	// Scan options
	f.Bool("recursive", d.Scan.Recursive, "Descend into subdirectories")
	f.StringSlice("ext", d.Scan.Extensions, "Image extensions to include (repeatable)")
	f.Bool("follow-symlinks", d.Scan.FollowSymlinks, "Follow symlinked directories when recursing")
	f.Int("concurrency", d.Batch.Concurrency, "Number of files processed at once")
	f.Duration("progress", d.Batch.ProgressInterval, "Minimum time between progress log lines")

	// Report options
	f.String("csv", "", "Write a CSV report to this path")
	f.String("html", "", "Write an HTML report to this path")
	f.String("json", "", "Write a JSON report to this path")
	f.String("map-url", d.Report.MapURL, "Prefix for map links in the HTML report")
	f.String("date-layout", d.Report.DateLayout, "Go time layout for report dates")
	f.String("timezone", d.Report.Timezone, "IANA time zone capture dates are recorded in")

	// S3 publishing flags
	f.Bool("upload", false, "Upload written reports to S3-compatible storage")
	f.String("endpoint", "", "S3 endpoint URL")
	f.String("region", d.S3.Region, "S3 region")
	f.String("bucket", "", "S3 bucket name")
	f.String("access-key", "", "S3 access key")
	f.String("secret-key", "", "S3 secret key")
	f.Bool("use-ssl", d.S3.UseSSL, "Use SSL for S3 connection")
	f.String("prefix", "", "Prefix for S3 object keys")
	f.Duration("presign", 0, "Print presigned download links valid for this long")
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanizio/cleanurls/internal/selfcheck"
)

var (
	checkURL    string
	checkStatic string
	checkDir    string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the request battery against a live deployment",
	Long: `check sends a fixed set of requests to the site and reports whether the
web server hands clean paths to the front controller, leaves real files and
directories alone, and keeps query parameters intact.  Exits non-zero when
any scenario fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		root := checkURL
		if root == "" {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			root = cfg.Site.WWWRoot
		}

		c, err := selfcheck.New(root, selfcheck.Options{StaticFile: checkStatic, Dir: checkDir})
		if err != nil {
			return err
		}
		results := c.Run(ctx)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCENARIO\tRESULT\tDETAIL")
		for _, r := range results {
			status := "PASS"
			if !r.OK {
				status = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, status, r.Detail)
		}
		tw.Flush()

		if !selfcheck.Passed(results) {
			return fmt.Errorf("%s: self check failed", root)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkURL, "url", "", "site root to check (default is site.wwwroot)")
	checkCmd.Flags().StringVar(&checkStatic, "static", selfcheck.DefaultStaticFile, "a real file below the site root")
	checkCmd.Flags().StringVar(&checkDir, "dir", selfcheck.DefaultDir, "a real directory below the site root")
	rootCmd.AddCommand(checkCmd)
}

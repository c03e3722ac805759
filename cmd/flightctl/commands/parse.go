package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/parser"
)

var (
	parseHTML   string
	parseLeave  string
	parseReturn string
)

func init() {
	f := parseCmd.Flags()
	f.StringVar(&parseHTML, "html", "", "Saved results page.")
	f.StringVar(&parseLeave, "leave", "", "Leave date stamped on every row.")
	f.StringVar(&parseReturn, "return", "", "Return date stamped on every row.")
	_ = parseCmd.MarkFlagRequired("html")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse --html <page.html> [--leave <date> --return <date>]",
	Short: "Runs the results parser over a saved page without a browser.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(parseHTML)
		if err != nil {
			return err
		}
		lines, err := parser.LinesFromHTML(string(raw), cfg.Scraper.ResultsSelector)
		if err != nil {
			return err
		}

		res := parser.Parse(lines, parser.Stamp{
			LeaveDate:  parseLeave,
			ReturnDate: parseReturn,
			AccessDate: time.Now().Format(cache.DateLayout),
		})
		for _, rej := range res.Rejected {
			fmt.Fprintln(cmd.ErrOrStderr(), "rejected:", rej)
		}
		if err := res.Err(); err != nil {
			return err
		}
		return printRows(cmd.OutOrStdout(), res.Rows)
	},
}

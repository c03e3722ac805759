package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/flightscrape/models"
)

var (
	fetchNoCache bool
	batchNoCache bool
	batchLeaves  []string
	batchReturns []string
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchNoCache, "no-cache", false, "Always scrape and do not write the cache.")
	rootCmd.AddCommand(fetchCmd)

	batchCmd.Flags().StringSliceVar(&batchLeaves, "leave", nil, "Leave dates, parallel to --return.")
	batchCmd.Flags().StringSliceVar(&batchReturns, "return", nil, "Return dates, parallel to --leave.")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "Always scrape and do not write the cache.")
	_ = batchCmd.MarkFlagRequired("leave")
	_ = batchCmd.MarkFlagRequired("return")
	rootCmd.AddCommand(batchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <origin> <dest> <leave-date> <return-date>",
	Short: "Fetches one round-trip search and prints the flights.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.svc.Fetch(cmd.Context(), models.FetchRequest{
			Origin:     args[0],
			Dest:       args[1],
			LeaveDate:  args[2],
			ReturnDate: args[3],
			UseCache:   !fetchNoCache,
		})
		if err != nil {
			return err
		}
		if res.Rejected > 0 {
			slog.Warn("some result blocks could not be read", "rejected", res.Rejected)
		}
		return printRows(cmd.OutOrStdout(), res.Rows)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <origin> <dest> --leave d1,d2 --return r1,r2",
	Short: "Fetches many date pairs of one route in a single browser session.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.svc.FetchBatch(cmd.Context(), models.BatchFetchRequest{
			Origin:      args[0],
			Dest:        args[1],
			LeaveDates:  batchLeaves,
			ReturnDates: batchReturns,
			UseCache:    !batchNoCache,
		})
		if err != nil {
			return err
		}
		printFailures(os.Stderr, res.Failures)
		if err := printRows(cmd.OutOrStdout(), res.Rows); err != nil {
			return err
		}
		if len(res.Failures) > 0 {
			return fmt.Errorf("%d of %d date pairs failed", len(res.Failures), len(batchLeaves))
		}
		return nil
	},
}

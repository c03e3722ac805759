package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/flightscrape/flights"
	"github.com/use-agent/flightscrape/models"
)

var (
	sweepWidth    int
	sweepAirports []string
)

func init() {
	sweepCmd.Flags().IntVar(&sweepWidth, "width", 3, "Days around each date to sweep.")
	rootCmd.AddCommand(sweepCmd)

	sweepAllCmd.Flags().IntVar(&sweepWidth, "width", 3, "Days around each date to sweep.")
	sweepAllCmd.Flags().StringSliceVar(&sweepAirports, "airports", flights.DefaultAirports, "Airports whose routes are swept.")
	rootCmd.AddCommand(sweepAllCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep <origin> <dest> <leave-date> <return-date>",
	Short: "Caches every date pair within --width days of the given dates.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.svc.Sweep(cmd.Context(), models.SweepRequest{
			Origin:     args[0],
			Dest:       args[1],
			LeaveDate:  args[2],
			ReturnDate: args[3],
			Width:      sweepWidth,
		})
		if err != nil {
			return err
		}
		printFailures(os.Stderr, res.Failures)
		fmt.Fprintf(cmd.OutOrStdout(), "cached %d rows for %s\n", len(res.Rows), models.NewRoute(args[0], args[1]))
		return nil
	},
}

var sweepAllCmd = &cobra.Command{
	Use:   "sweep-all <leave-date> <return-date>",
	Short: "Sweeps every route between --airports, skipping same-city pairs.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		pairs := flights.RoutePairs(sweepAirports, flights.DefaultSameCity)
		outcomes := s.svc.SweepRoutes(cmd.Context(), pairs, args[0], args[1], sweepWidth)

		failed := 0
		out := cmd.OutOrStdout()
		for _, o := range outcomes {
			if o.Err != nil {
				failed++
				fmt.Fprintf(out, "%s-%s\tfailed: %v\n", o.Pair.Origin, o.Pair.Dest, o.Err)
				continue
			}
			fmt.Fprintf(out, "%s-%s\t%d rows\t%d failed pairs\n", o.Pair.Origin, o.Pair.Dest, len(o.Result.Rows), len(o.Result.Failures))
		}
		if err := cmd.Context().Err(); err != nil {
			return fmt.Errorf("interrupted after %d of %d routes: %w", len(outcomes), len(pairs), err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d routes failed", failed, len(pairs))
		}
		return nil
	},
}

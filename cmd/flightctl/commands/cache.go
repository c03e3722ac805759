package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

var query models.FlightQuery

func init() {
	rootCmd.AddCommand(cleanCacheCmd, routesCmd, rebuildCmd, queryCmd)

	f := queryCmd.Flags()
	f.StringVar(&query.LeaveDate, "depart-date", "", "Only rows leaving on this date.")
	f.StringVar(&query.ReturnDate, "return-date", "", "Only rows returning on this date.")
	f.StringVar(&query.AccessDate, "access-date", "", "Rows scraped on this date (default today).")
	f.Float64Var(&query.PriceMin, "price-min", 0, "Minimum price.")
	f.Float64Var(&query.PriceMax, "price-max", 0, "Maximum price (default unbounded).")
}

func withStore(fn func(*cache.Store) error) error {
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

var cleanCacheCmd = &cobra.Command{
	Use:   "clean-cache [origin dest]",
	Short: "Removes duplicate rows from one route, or from every cached route.",
	Args:  cobra.MatchAll(cobra.MaximumNArgs(2), func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return fmt.Errorf("clean-cache takes no arguments or both origin and dest")
		}
		return nil
	}),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *cache.Store) error {
			var (
				n   int
				err error
			)
			if len(args) == 2 {
				n, err = s.Clean(args[0], args[1])
			} else {
				n, err = s.CleanAll()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d duplicate rows\n", n)
			return err
		})
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Lists cached routes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *cache.Store) error {
			routes, err := s.Routes()
			if err != nil {
				return err
			}
			for _, r := range routes {
				fmt.Fprintln(cmd.OutOrStdout(), r.Key())
			}
			return nil
		})
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <origin> <dest>",
	Short: "Discards a route's cache entry, e.g. after it was reported corrupt.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *cache.Store) error {
			return s.Rebuild(args[0], args[1])
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <origin> <dest>",
	Short: "Prints cached rows of a route matching the filters.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *cache.Store) error {
			q := query
			q.Origin, q.Dest = args[0], args[1]
			rows, err := s.Query(q)
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		})
	},
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/geoinfo/firedb/internal/io/database"
	"github.com/geoinfo/firedb/internal/io/loader"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/spf13/cobra"
)

func getStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report aggregate statistics of the observation store",
		Long: `Report aggregate statistics of the observation store: total
observations, fire/non-fire split, covered date range and the data
sources present.

Examples:
  firedb stats
  firedb stats --date-start 2020-01-01 --date-end 2020-12-31
  firedb stats --source NASA_FIRMS`,
		RunE: runStats,
	}

	f := cmd.Flags()
	f.StringVar(&statsDateStart, "date-start", "",
		"only count records on or after this date (YYYY-MM-DD)")
	f.StringVar(&statsDateEnd, "date-end", "",
		"only count records on or before this date (YYYY-MM-DD)")
	f.StringVar(&statsSource, "source", "",
		"only count records with this data_source tag")

	return cmd
}

var (
	statsDateStart string
	statsDateEnd   string
	statsSource    string
)

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	filter := firedb.StatsFilter{DataSource: statsSource}
	var err error
	if filter.Start, err = parseDate(statsDateStart); err != nil {
		return err
	}
	if filter.End, err = parseDate(statsDateEnd); err != nil {
		return err
	}

	op := database.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return err
	}
	defer op.Close()

	res, err := loader.NewLoader(op, cfg, log).Statistics(ctx, filter)
	if err != nil {
		return err
	}

	fmt.Printf("Observations: %s\n",
		humanize.Comma(res.TotalObservations))
	fmt.Printf("  fire:     %s\n", humanize.Comma(res.FireCount))
	fmt.Printf("  non-fire: %s\n",
		humanize.Comma(res.TotalObservations-res.FireCount))
	if res.TotalObservations > 0 {
		fmt.Printf("Date range:   %s to %s\n",
			res.EarliestDate.Format("2006-01-02"),
			res.LatestDate.Format("2006-01-02"))
		fmt.Printf("Data sources: %s\n", strings.Join(res.DataSources, ", "))
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return t, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

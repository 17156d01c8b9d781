package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/report"
	"github.com/duskwatch/sentinel/internal/sentinel/store"
)

func newTrendCmd() *cobra.Command {
	var (
		dbPath    string
		window    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Report signal trends over a 7d|30d|90d window",
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, err := core.ParseWindow(window)
			if err != nil {
				return err
			}

			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			trendReport, err := st.TrendReport(duration)
			if err != nil {
				return err
			}

			for _, line := range trendReport.Summary {
				fmt.Println(line)
			}

			if outputDir != "" {
				if err := report.WriteTrendCSV(outputDir, trendReport); err != nil {
					return err
				}
				if err := report.WriteTrendMarkdown(outputDir, trendReport); err != nil {
					return err
				}
				if err := report.WriteTrendJSONL(outputDir, trendReport); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite store")
	cmd.Flags().StringVar(&window, "window", "7d", "trend window: 7d|30d|90d")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write trend report artifacts (optional)")
	cmd.MarkFlagRequired("db")

	return cmd
}

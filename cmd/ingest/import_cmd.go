package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/padraicbc/golfstats/ingest"
	"github.com/padraicbc/golfstats/store"
)

func newCoursesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "Import course workbooks (COURSE_PATTERN) from the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			p := ingest.NewPipeline[ingest.CourseImport](
				a.fs,
				ingest.NewCourseImporter(store.New(e.db)),
				ingest.NewArchiver(a.fs, e.cfg.ProcessedDir),
				e.logger,
			)
			results, err := p.Run(cmd.Context(), e.cfg.InputDir, e.cfg.CoursePattern)
			return report(a.out, results, err)
		},
	}
}

func newRoundsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rounds",
		Short: "Import round workbooks (ROUND_PATTERN, minus course files) from the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			p := ingest.NewPipeline[ingest.RoundImport](
				a.fs,
				ingest.NewRoundImporter(store.New(e.db)),
				ingest.NewArchiver(a.fs, e.cfg.ProcessedDir),
				e.logger,
			)
			results, err := p.Run(cmd.Context(), e.cfg.InputDir, e.cfg.RoundPattern, e.cfg.CoursePattern)
			return report(a.out, results, err)
		},
	}
}

// report prints one line per file and a summary. Any failed file makes
// the command fail.
func report(w io.Writer, results []ingest.Result, runErr error) error {
	var imported, skipped, failed int
	for _, r := range results {
		fmt.Fprintln(w, r)
		switch r.Outcome {
		case ingest.Imported:
			imported++
		case ingest.Skipped:
			skipped++
		default:
			failed++
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(w, "%d imported, %d skipped, %d failed\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

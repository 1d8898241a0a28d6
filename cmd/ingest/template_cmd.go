package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/padraicbc/golfstats/config"
	"github.com/padraicbc/golfstats/ingest"
	"github.com/padraicbc/golfstats/workbook"
)

var templates = map[string]struct {
	file   string
	sheets func() []workbook.SheetSpec
}{
	"course": {"course_import_template.xlsx", ingest.CourseTemplate},
	"round":  {"golf_stats_template.xlsx", ingest.RoundTemplate},
}

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "template course|round",
		Short:     "Write a blank import workbook with drop-downs for the fixed-choice columns",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"course", "round"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.v.SetDefault("TEMPLATE_DIR", config.DefaultTemplateDir)
			a.v.AutomaticEnv()
			dir := a.v.GetString("TEMPLATE_DIR")

			t := templates[args[0]]
			if err := a.fs.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, t.file)
			f, err := a.fs.Create(path)
			if err != nil {
				return err
			}
			if err := workbook.Write(f, t.sheets()); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "template written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "output directory (TEMPLATE_DIR)")
	_ = a.v.BindPFlag("TEMPLATE_DIR", cmd.Flags().Lookup("dir"))
	return cmd
}

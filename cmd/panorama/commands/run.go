package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/internal/extract"
	"ibge-panorama/internal/harvest"
	"ibge-panorama/internal/sink"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const runtimeStatsInterval = 30 * time.Second

var (
	runOut string
	runDb  string
)

func init() {
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Output file, overrides the config.")
	runCmd.Flags().StringVar(&runDb, "db", "", "Also mirror the records into a sqlite database at this path.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--out resultado.txt] [--db results.db] [--division mg ...]",
	Short: "Harvests every unit of the configured divisions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if runOut != "" {
			cfg.Output = runOut
		}
		if runDb != "" {
			cfg.SQLite = runDb
		}

		layout, err := cfg.Layout.Compile()
		if err != nil {
			return fmt.Errorf("invalid layout: %w", err)
		}

		a, err := newApp(cfg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		text := sink.NewTextFile(cfg.Output)
		outputs := []sink.Output{text}
		if cfg.SQLite != "" {
			db, err := sink.OpenSQLite(cfg.SQLite)
			if err != nil {
				return fmt.Errorf("open sqlite mirror: %w", err)
			}
			outputs = append(outputs, db)
		}
		collector := sink.NewCollector(a.tel, outputs...)
		defer collector.Close()

		harvester := harvest.NewHarvester(
			a.resolver,
			a.fetcher,
			extract.NewExtractor(layout),
			collector,
			cfg.DetailURL,
			a.time,
			a.tel,
		)

		policy := a.fetcher.Policy()
		a.tel.ReportDebug("retry policy", policy.Retries, policy.Base, policy.Unit.String())
		telemetry.RecordRuntimeStats(cmd.Context(), runtimeStatsInterval, a.tel)

		summary, err := harvester.Run(cmd.Context(), cfg.Divisions)
		if err != nil {
			return fmt.Errorf("harvest: %w", err)
		}

		printSummary(cmd.OutOrStdout(), text.Path(), summary)
		return nil
	},
}

func printSummary(w io.Writer, output string, summary harvest.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Units", "Done", "Skipped", "Records", "Elapsed", "Output"})
	t.AppendRow(table.Row{
		summary.Units,
		summary.Done,
		summary.Skipped,
		summary.Records,
		summary.Elapsed.Round(time.Millisecond).String(),
		output,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(summary.SkippedUnits) == 0 {
		return
	}

	fmt.Fprintln(w)
	skipped := table.NewWriter()
	skipped.SetOutputMirror(w)
	skipped.AppendHeader(table.Row{"#", "Unit", "UF", "Reason"})
	for _, s := range summary.SkippedUnits {
		skipped.AppendRow(table.Row{
			s.Index,
			s.Unit.Name,
			strings.ToUpper(s.Unit.DivisionCode()),
			s.Reason.Error(),
		})
	}
	skipped.SetStyle(table.StyleRounded)
	skipped.Render()
}

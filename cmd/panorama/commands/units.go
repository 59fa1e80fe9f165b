package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(unitsCmd)
}

var unitsCmd = &cobra.Command{
	Use:   "units [--division mg ...]",
	Short: "Lists the units of the configured divisions and the page each one is read from.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a, err := newApp(cfg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		units, err := a.resolver.Resolve(cmd.Context(), cfg.Divisions)
		if err != nil {
			return fmt.Errorf("resolve catalog: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "ID", "Name", "UF", "URL"})
		for i, u := range units {
			t.AppendRow(table.Row{i, u.ID, u.Name, u.DivisionCode(), u.DetailURL(cfg.DetailURL)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/internal/config"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	divisions  []string
)

var otelHandle telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:           "panorama",
	Short:         "panorama harvests the IBGE municipality panorama pages into a key;value file.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		otelHandle, err = telemetry.SetupFromEnv(cmd.Context(), "panorama")
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("Config file, %s is searched for upwards when unset.", config.FileName))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringSliceVarP(&divisions, "division", "d", nil, "Division (state) code to harvest, repeatable. Overrides the config.")
}

// loadConfig reads the config and applies the flags shared by every command.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if len(divisions) > 0 {
		cfg.Divisions = divisions
	}
	return cfg, nil
}

// execute runs the command line in args and flushes telemetry, also when
// the command fails.
func execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)

	flushErr := otelHandle.Shutdown(context.Background())
	otelHandle = telemetry.Telemetry{}
	if flushErr != nil {
		slog.Warn("failed to flush telemetry", "err", flushErr)
	}
	return err
}

func ExecuteContext(ctx context.Context) {
	if err := execute(ctx, os.Args[1:]); err != nil {
		slog.Error("panorama failed", "err", err)
		os.Exit(1)
	}
}

package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"binary-trader/internal/config"
)

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
}

func configOnly() map[string]string {
	return map[string]string{skipEngine: "true"}
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: configOnly(),
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd, app)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("bintrade v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "show",
		Short:       "Show current configuration",
		Annotations: configOnly(),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration directory path",
		Annotations: configOnly(),
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd, app)
			file := filepath.Join(app.Config.Dir, "config.toml")
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir, "file": file})
			} else {
				output.Println(file)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: configOnly(),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return reported(err)
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Account")
	output.Printf("  Initial balance:     %s\n", output.Money(cfg.Account.InitialBalance))
	output.Printf("  Initial investment:  %s\n", output.Money(cfg.Account.InitialInvestment))
	output.Printf("  Initial profit rate: %s\n", FormatRate(cfg.Account.InitialProfitRate))
	output.Println()

	output.Bold("Engine")
	output.Printf("  Resolution delay:    %s\n", cfg.Engine.ResolutionDelay)
	output.Printf("  Auto trade interval: %s\n", cfg.Engine.AutoTradeInterval)
	output.Printf("  Stake floor:         %s\n", output.Money(cfg.Engine.StakeFloor))
	if cfg.Engine.MaxLedgerRecords > 0 {
		output.Printf("  Max ledger records:  %d\n", cfg.Engine.MaxLedgerRecords)
	} else {
		output.Printf("  Max ledger records:  unlimited\n")
	}
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:                %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:               %s\n", cfg.Logging.Level)
	output.Printf("  Console:             %v\n", cfg.Logging.Console)
	output.Printf("  File:                %v\n", cfg.Logging.File)
	if cfg.Logging.File {
		output.Printf("  Path:                %s\n", cfg.Logging.Path)
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"binary-trader/internal/ledger"
	"binary-trader/internal/models"
)

// addHistoryCommands adds trade ledger commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newHistoryCmd(app *App) *cobra.Command {
	runList := func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return listHistory(NewOutput(cmd, app), app, limit)
	}

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ledger"},
		Short:   "Show resolved trades, newest first",
		Args:    cobra.NoArgs,
		RunE:    runList,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "Show resolved trades, newest first",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	for _, c := range []*cobra.Command{cmd, list} {
		c.Flags().IntP("limit", "n", 20, "number of trades to show (0 for all)")
	}

	cmd.AddCommand(list)
	cmd.AddCommand(newHistorySummaryCmd(app))
	cmd.AddCommand(newHistoryClearCmd(app))
	cmd.AddCommand(newHistoryExportCmd(app))

	return cmd
}

func listHistory(output *Output, app *App, limit int) error {
	records := app.Engine.History()
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if output.IsJSON() {
		return output.JSON(records)
	}

	if len(records) == 0 {
		output.Dim("No trades yet")
		return nil
	}

	layout := ""
	if app.Config != nil {
		layout = app.Config.UI.TimeFormat
	}

	table := NewTable(output, "TIME", "ORDER", "RESULT", "PAYOUT", "MODE")
	for _, r := range records {
		result := output.Green("WON")
		if !r.Won() {
			result = output.Red("LOST")
		}
		mode := "manual"
		if r.Auto {
			mode = "auto"
		}
		table.AddRow(
			FormatTime(r.Timestamp, layout),
			FormatOrder(r.Direction, r.Stake),
			result,
			output.FormatPnL(r.Payout),
			mode,
		)
	}
	table.Render()
	return nil
}

func newHistorySummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show win/loss statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			summary := app.Engine.Summary()
			if output.IsJSON() {
				return output.JSON(summary)
			}
			printSummary(output, summary)
			return nil
		},
	}
}

func printSummary(output *Output, s ledger.Summary) {
	output.Bold("Trade Summary")
	if s.Total == 0 {
		output.Dim("  No trades yet")
		return
	}
	output.Printf("  Trades:       %d (%d auto)\n", s.Total, s.AutoTrades)
	output.Printf("  Won / Lost:   %d / %d\n", s.Wins, s.Losses)
	output.Printf("  Win rate:     %.1f%%\n", s.WinRate)
	output.Printf("  Total staked: %s\n", output.Money(s.TotalStaked))
	output.Printf("  Net payout:   %s\n", output.FormatPnL(s.NetPayout))
	output.Printf("  Largest win:  %s\n", output.FormatPnL(s.LargestWin))
	output.Printf("  Largest loss: %s\n", output.FormatPnL(s.LargestLoss))
	output.Printf("  Worst streak: %d losses\n", s.LongestLossStreak)
}

func newHistoryClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every trade from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			removed := len(app.Engine.History())
			if err := app.Engine.ClearLedger(); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int{"removed": removed})
			}
			output.Success("Trade history cleared (%d removed)", removed)
			return nil
		},
	}
}

func newHistoryExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the trade history as JSON or YAML",
		Example: `  bintrade history export
  bintrade history export --format yaml --output trades.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			path, _ := cmd.Flags().GetString("output")
			records := app.Engine.History()

			if path == "" {
				return ledger.Export(cmd.OutOrStdout(), records, format)
			}
			return exportToFile(NewOutput(cmd, app), path, records, format)
		},
	}

	cmd.Flags().StringP("format", "f", ledger.FormatJSON, "export format (json, yaml)")
	cmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	return cmd
}

func exportToFile(output *Output, path string, records []models.TradeRecord, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := ledger.Export(f, records, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	output.Success("Exported %d trades to %s", len(records), path)
	return nil
}

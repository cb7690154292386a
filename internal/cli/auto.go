package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"binary-trader/internal/engine"
	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/logging"
	"binary-trader/internal/models"
)

// addAutoCommands adds the auto-trade and interactive commands.
func addAutoCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAutoCmd(app))
	rootCmd.AddCommand(newPlayCmd(app))
}

// autoRun is the JSON result of an auto-trade session.
type autoRun struct {
	Trades  []models.TradeRecord `json:"trades"`
	State   models.State         `json:"state"`
	Halted  bool                 `json:"halted"`
	Elapsed string               `json:"elapsed"`
}

func newAutoCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Run the martingale auto-trade loop",
		Long: `Run auto trade in the foreground.

Every interval an up trade is placed at the current stake and settled at
once. A win resets the stake to the floor, a loss doubles it. The loop stops
on its own when the balance cannot cover the next stake, after --duration
or --max-trades, or on Ctrl+C.`,
		Example: `  bintrade auto
  bintrade auto --duration 1m
  bintrade auto --max-trades 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			duration, _ := cmd.Flags().GetDuration("duration")
			maxTrades, _ := cmd.Flags().GetInt("max-trades")

			ctx, cancel := signalContext(cmd)
			defer cancel()
			if duration > 0 {
				var cancelTimeout context.CancelFunc
				ctx, cancelTimeout = context.WithTimeout(ctx, duration)
				defer cancelTimeout()
			}

			run, err := runAuto(ctx, app, output, maxTrades)
			if err != nil {
				if output.IsJSON() {
					output.JSON(app.Engine.State())
				} else {
					output.Error("%s", apperrors.UserMessage(err))
				}
				return reported(err)
			}

			if output.IsJSON() {
				return output.JSON(run)
			}

			output.Println()
			printMessage(output, run.State.Message)
			output.Printf("%d trades in %s, balance %s\n", len(run.Trades), run.Elapsed, output.Money(run.State.Balance))
			return nil
		},
	}

	cmd.Flags().Duration("duration", 0, "stop after this long (0 runs until halted)")
	cmd.Flags().Int("max-trades", 0, "stop after this many trades (0 for no limit)")

	return cmd
}

// runAuto drives auto trade until it halts, ctx is done, or maxTrades trades
// have settled. Each settled trade is printed as it arrives.
func runAuto(ctx context.Context, app *App, output *Output, maxTrades int) (*autoRun, error) {
	ch, unsubscribe := app.Engine.Subscribe(16)
	defer unsubscribe()

	seen := make(map[string]bool)
	for _, r := range app.Engine.History() {
		seen[r.ID] = true
	}

	logger := logging.FromContext(ctx)
	start := time.Now()
	if err := app.Engine.StartAutoTrade(); err != nil {
		return nil, err
	}
	defer func() {
		s := app.Engine.State()
		logger.Info().
			Int("max_trades", maxTrades).
			Float64("balance", s.Balance).
			Float64("investment", s.Investment).
			Dur("elapsed", time.Since(start)).
			Msg("Auto trade session ended")
	}()
	if !output.IsJSON() {
		output.Info("Auto trade started, press Ctrl+C to stop")
	}

	run := &autoRun{}
	for {
		select {
		case <-ctx.Done():
			app.Engine.StopAutoTrade()
			return finishRun(app, run, start, false), nil

		case s, ok := <-ch:
			if !ok {
				return finishRun(app, run, start, false), nil
			}

			for _, r := range newRecords(app.Engine.History(), seen) {
				run.Trades = append(run.Trades, r)
				if !output.IsJSON() {
					printAutoTrade(output, len(run.Trades), r)
				}
			}

			if !s.AutoTrade {
				return finishRun(app, run, start, s.Message == engine.MsgAutoTradeHalted), nil
			}
			if maxTrades > 0 && len(run.Trades) >= maxTrades {
				app.Engine.StopAutoTrade()
				return finishRun(app, run, start, false), nil
			}
		}
	}
}

// newRecords returns the records not yet in seen, oldest first, and marks
// them seen.
func newRecords(history []models.TradeRecord, seen map[string]bool) []models.TradeRecord {
	var fresh []models.TradeRecord
	for _, r := range history {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		fresh = append(fresh, r)
	}
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh
}

func finishRun(app *App, run *autoRun, start time.Time, halted bool) *autoRun {
	run.State = app.Engine.State()
	run.Halted = halted
	run.Elapsed = FormatDuration(time.Since(start))
	if run.Trades == nil {
		run.Trades = []models.TradeRecord{}
	}
	return run
}

func printAutoTrade(output *Output, n int, r models.TradeRecord) {
	result := output.Green("WON ")
	if !r.Won() {
		result = output.Red("LOST")
	}
	output.Printf("#%-4d %-12s %s %s\n", n, FormatOrder(r.Direction, r.Stake), result, output.FormatPnL(r.Payout))
}

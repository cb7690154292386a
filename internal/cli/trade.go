package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/models"
)

// addTradeCommands adds trading and account commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newStakeCmd(app))
	rootCmd.AddCommand(newProfitCmd(app))
	rootCmd.AddCommand(newBalanceCmd(app))
}

// signalContext returns a context cancelled on interrupt or termination.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// statusView is the JSON form of the status command.
type statusView struct {
	models.State
	PotentialProfit float64 `json:"potential_profit"`
	Trades          int     `json:"trades"`
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balance, stake and profit rate",
		Long: `Show the account balance, the current stake and profit rate, what a
winning trade would earn, and the latest status message.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			state := app.Engine.State()

			if output.IsJSON() {
				return output.JSON(statusView{
					State:           state,
					PotentialProfit: state.PotentialProfit(),
					Trades:          len(app.Engine.History()),
				})
			}

			printState(output, state)
			return nil
		},
	}
}

// printState renders the account panel.
func printState(output *Output, state models.State) {
	output.Bold("Account")
	output.Printf("  Balance:     %s\n", output.Money(state.Balance))
	output.Printf("  Investment:  %s\n", output.Money(state.Investment))
	output.Printf("  Profit rate: %s (you earn %s)\n", FormatRate(state.ProfitRate), output.Money(state.PotentialProfit()))
	if state.AutoTrade {
		output.Printf("  Auto trade:  %s\n", output.Green("ON"))
	} else {
		output.Printf("  Auto trade:  %s\n", output.DimText("OFF"))
	}
	if state.Pending != nil {
		output.Printf("  Pending:     %s\n", output.Yellow(state.Pending.Label()))
	}
	output.Println()
	printMessage(output, state.Message)
}

// printMessage prints a status message coloured by what it reports.
func printMessage(output *Output, msg string) {
	switch messageKind(msg) {
	case kindWin:
		output.Success("%s", msg)
	case kindLoss, kindError:
		output.Error("%s", msg)
	default:
		output.Info("%s", msg)
	}
}

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade <up|down>",
		Short: "Place a trade and wait for it to resolve",
		Long: `Place a trade at the current stake and wait for the market to move.

The stake is debited at placement. If the drawn direction matches yours the
stake is returned with the profit rate on top; otherwise it is lost.
"buy"/"call" are accepted for up and "sell"/"put" for down.`,
		Example: `  bintrade trade up
  bintrade trade down --stake 250
  bintrade trade buy --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)

			dir, err := models.ParseDirection(args[0])
			if err != nil {
				output.Error("%v", err)
				return reported(err)
			}

			if cmd.Flags().Changed("stake") {
				stake, _ := cmd.Flags().GetString("stake")
				if err := app.Engine.SetStake(parseAmountArg(stake)); err != nil {
					return err
				}
			}

			before := app.Engine.State()
			if err := app.Engine.PlaceTrade(dir); err != nil {
				if output.IsJSON() {
					output.JSON(app.Engine.State())
				} else {
					output.Error("%s", apperrors.UserMessage(err))
				}
				return reported(err)
			}

			if !output.IsJSON() {
				output.Printf("%s %s at %s profit rate\n",
					output.Yellow(dir.Label()), output.Money(before.Investment), FormatRate(before.ProfitRate))
				output.Info("%s", app.Engine.State().Message)
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			state, err := app.Engine.WaitIdle(ctx)
			if err != nil {
				output.Warning("Interrupted before the trade resolved")
				return err
			}

			var last *models.TradeRecord
			if history := app.Engine.History(); len(history) > 0 {
				last = &history[0]
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"state": state,
					"trade": last,
				})
			}

			if last != nil {
				output.Printf("Market moved %s\n", last.Drawn)
			}
			printMessage(output, state.Message)
			output.Printf("Balance: %s\n", output.Money(state.Balance))
			return nil
		},
	}

	cmd.Flags().String("stake", "", "set the stake before placing")

	return cmd
}

func newStakeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Show or change the stake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			state := app.Engine.State()
			if output.IsJSON() {
				return output.JSON(map[string]float64{"investment": state.Investment})
			}
			output.Printf("Investment: %s\n", output.Money(state.Investment))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <amount>",
		Short: "Set the stake",
		Long: `Set the stake used by the next trade. Blank input sets 0 and non-numeric
input is kept as not-a-number; both are refused when a trade is placed.`,
		Example: `  bintrade stake set 100
  bintrade stake set 12.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.SetStake(parseAmountArg(args[0])); err != nil {
				return err
			}
			return reportValue(cmd, app, "investment", app.Engine.State().Investment)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "double",
		Short: "Double the stake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.DoubleStake(); err != nil {
				return err
			}
			return reportValue(cmd, app, "investment", app.Engine.State().Investment)
		},
	})

	return cmd
}

func newProfitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profit",
		Short: "Show or change the profit rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			state := app.Engine.State()
			if output.IsJSON() {
				return output.JSON(map[string]float64{
					"profit_rate":      state.ProfitRate,
					"potential_profit": state.PotentialProfit(),
				})
			}
			output.Printf("Profit rate: %s (you earn %s)\n", FormatRate(state.ProfitRate), output.Money(state.PotentialProfit()))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <percent>",
		Short:   "Set the profit rate percentage",
		Example: `  bintrade profit set 92`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.SetProfitRate(parseAmountArg(args[0])); err != nil {
				return err
			}
			return reportValue(cmd, app, "profit_rate", app.Engine.State().ProfitRate)
		},
	})

	return cmd
}

func newBalanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show or change the account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			state := app.Engine.State()
			if output.IsJSON() {
				return output.JSON(map[string]float64{"balance": state.Balance})
			}
			output.Printf("Balance: %s\n", output.Money(state.Balance))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <amount>",
		Short:   "Set the account balance",
		Example: `  bintrade balance set 10000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.SetBalance(parseAmountArg(args[0])); err != nil {
				return err
			}
			return reportValue(cmd, app, "balance", app.Engine.State().Balance)
		},
	})

	return cmd
}

func reportValue(cmd *cobra.Command, app *App, field string, value float64) error {
	output := NewOutput(cmd, app)
	if output.IsJSON() {
		return output.JSON(map[string]float64{field: value})
	}
	switch field {
	case "profit_rate":
		output.Success("Profit rate set to %s", FormatRate(value))
	case "balance":
		output.Success("Balance set to %s", output.Money(value))
	default:
		output.Success("Investment set to %s", output.Money(value))
	}
	return nil
}

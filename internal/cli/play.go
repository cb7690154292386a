package cli

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"binary-trader/internal/engine"
	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/logging"
	"binary-trader/internal/models"
	"binary-trader/pkg/utils"
)

const playHelp = `Commands:
  up | buy              place an up trade
  down | sell           place a down trade
  stake <amount>        set the stake
  double                double the stake
  profit <percent>      set the profit rate
  balance <amount>      set the balance
  auto                  toggle auto trade
  status                show the account
  history [n]           show the last n trades
  summary               show win/loss statistics
  clear                 clear the trade history
  help                  show this help
  quit                  leave the session`

func newPlayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Start an interactive trading session",
		Long: `Start an interactive session. Trades resolve in the background and their
results are printed as they arrive, so you can keep adjusting the stake or
toggle auto trade while a trade is pending.

` + playHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			return runPlay(ctx, app, NewOutput(cmd, app), cmd.InOrStdin())
		},
	}
}

// runPlay reads commands from in until quit, EOF, or ctx is done. A
// background renderer prints trade results and auto-trade halts.
func runPlay(ctx context.Context, app *App, output *Output, in io.Reader) error {
	ch, unsubscribe := app.Engine.Subscribe(16)
	seen := make(map[string]bool)
	for _, r := range app.Engine.History() {
		seen[r.ID] = true
	}
	auto := app.Engine.State().AutoTrade

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderEvents(app, output, ch, seen, auto)
	}()
	defer func() {
		unsubscribe()
		wg.Wait()
	}()

	logger := logging.FromContext(ctx)
	logger.Debug().Msg("Interactive session started")
	defer func() { logger.Debug().Msg("Interactive session ended") }()

	printState(output, app.Engine.State())
	output.Dim("Type 'help' for commands")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	prompt := isTerminal(in)
	for {
		if prompt {
			output.Printf("> ")
		}
		select {
		case <-ctx.Done():
			return finishPlay(ctx, app)
		case line, ok := <-lines:
			if !ok {
				return finishPlay(ctx, app)
			}
			if quit := playCommand(app, output, line); quit {
				return finishPlay(ctx, app)
			}
		}
	}
}

// finishPlay stops auto trade and lets a pending trade resolve.
func finishPlay(ctx context.Context, app *App) error {
	if app.Engine.State().AutoTrade {
		app.Engine.StopAutoTrade()
	}
	if _, err := app.Engine.WaitIdle(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// renderEvents prints settled trades not in seen and auto-trade halts until
// ch closes. auto is the auto-trade mode when ch was subscribed.
func renderEvents(app *App, output *Output, ch <-chan models.State, seen map[string]bool, auto bool) {
	for s := range ch {
		for _, r := range newRecords(app.Engine.History(), seen) {
			printSettlement(output, r, s)
		}
		if auto && !s.AutoTrade && s.Message == engine.MsgAutoTradeHalted {
			printMessage(output, s.Message)
		}
		auto = s.AutoTrade
	}
}

func printSettlement(output *Output, r models.TradeRecord, s models.State) {
	prefix := ""
	if r.Auto {
		prefix = "[auto] "
	}
	msg := FormatOrder(r.Direction, r.Stake) + ", market " + string(r.Drawn) + ": "
	if r.Won() {
		output.Success("%s%sYou won! Gained $%s", prefix, msg, utils.FormatAmount(r.Payout))
	} else {
		output.Error("%s%sYou lost! Lost $%s", prefix, msg, utils.FormatAmount(r.Stake))
	}
	output.Dim("  balance %s, next stake %s", output.Money(s.Balance), output.Money(s.Investment))
}

// playCommand runs one session command and reports whether to quit.
func playCommand(app *App, output *Output, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	var err error
	switch cmd := strings.ToLower(fields[0]); cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		output.Println(playHelp)
	case "status":
		printState(output, app.Engine.State())
	case "up", "down", "buy", "sell", "call", "put":
		dir, _ := models.ParseDirection(cmd)
		if err = app.Engine.PlaceTrade(dir); err == nil {
			output.Info("%s %s: %s", dir.Label(), output.Money(app.Engine.State().Investment), engine.MsgPlacing)
		}
	case "stake", "investment":
		if err = app.Engine.SetStake(parseAmountArg(arg)); err == nil {
			output.Printf("Investment: %s\n", output.Money(app.Engine.State().Investment))
		}
	case "double":
		if err = app.Engine.DoubleStake(); err == nil {
			output.Printf("Investment: %s\n", output.Money(app.Engine.State().Investment))
		}
	case "profit":
		if err = app.Engine.SetProfitRate(parseAmountArg(arg)); err == nil {
			s := app.Engine.State()
			output.Printf("Profit rate: %s (you earn %s)\n", FormatRate(s.ProfitRate), output.Money(s.PotentialProfit()))
		}
	case "balance":
		if err = app.Engine.SetBalance(parseAmountArg(arg)); err == nil {
			output.Printf("Balance: %s\n", output.Money(app.Engine.State().Balance))
		}
	case "auto":
		var active bool
		if active, err = app.Engine.ToggleAutoTrade(); err == nil {
			if active {
				output.Info("%s", engine.MsgAutoTradeStarted)
				output.Dim("Type 'auto' again to stop")
			} else {
				output.Info("%s", engine.MsgAutoTradeOff)
			}
		}
	case "history":
		limit := 10
		if n, convErr := strconv.Atoi(arg); convErr == nil {
			limit = n
		}
		err = listHistory(output, app, limit)
	case "summary":
		printSummary(output, app.Engine.Summary())
	case "clear":
		if err = app.Engine.ClearLedger(); err == nil {
			output.Success("Trade history cleared")
		}
	default:
		output.Warning("Unknown command %q, type 'help' for commands", fields[0])
	}

	if err != nil {
		output.Error("%s", apperrors.UserMessage(err))
	}
	return false
}

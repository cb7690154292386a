package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"binary-trader/internal/clock"
	"binary-trader/internal/config"
	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/engine"
	"binary-trader/internal/logging"
	"binary-trader/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-03"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.KVStore
	Engine *engine.Engine

	// owned is set when the App opened Store and Engine itself and must
	// close them after the command runs.
	owned bool
}

// skipEngine marks commands that only need configuration.
const skipEngine = "skip-engine"

// Execute runs the CLI with os.Args and releases everything it opened,
// including when the command fails.
func Execute(ctx context.Context) error {
	app := &App{}
	defer app.Close()
	return NewRootCmd(app).ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the CLI. Callers own app and must
// Close it once the command returns.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bintrade",
		Short: "Binary option trade simulator",
		Long: `bintrade simulates binary option trades against a virtual balance.

Pick a direction and a stake; after a short delay the market moves up or
down at random. A correct call pays the stake back plus the profit rate,
a wrong one forfeits the stake. Auto trade runs a martingale loop that
doubles the stake after every loss until the balance cannot cover it.

Balance, stake, profit rate and trade history persist between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/binary-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "keep state in memory only for this run")

	addCoreCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addAutoCommands(rootCmd, app)

	return rootCmd
}

// init loads configuration and, unless the command is marked skipEngine,
// opens the store and engine. Pre-populated fields are left alone.
func (a *App) init(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.Config = cfg
		a.Logger = logging.NewLoggerWithConfig(logging.LogConfig{
			Level:      cfg.Logging.Level,
			Console:    cfg.Logging.Console,
			File:       cfg.Logging.File,
			FilePath:   cfg.Logging.Path,
			MaxSize:    cfg.Logging.MaxSize,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAge,
		})
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, logging.WithOperation(a.Logger, cmd.CommandPath())))

	if cmd.Annotations[skipEngine] == "true" || a.Engine != nil {
		return nil
	}

	if a.Store == nil {
		ephemeral, _ := cmd.Flags().GetBool("ephemeral")
		if ephemeral {
			a.Store = store.NewMemoryStore()
			a.Logger.Debug().Msg("Using in-memory store")
		} else {
			kv, err := store.NewSQLiteStore(a.Config.Store.Path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			a.Store = kv
			a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
		}
	}

	a.Engine = engine.New(engineOptions(a.Config, a.Store, a.Logger))
	a.owned = true
	return nil
}

// engineOptions maps configuration onto engine options.
func engineOptions(cfg *config.Config, kv store.KVStore, logger zerolog.Logger) engine.Options {
	delay := cfg.Engine.ResolutionDelay
	if delay == 0 {
		delay = engine.Immediate
	}
	return engine.Options{
		Store:  kv,
		Clock:  clock.Real{},
		Logger: logger,
		Defaults: &engine.Defaults{
			Balance:    cfg.Account.InitialBalance,
			Investment: cfg.Account.InitialInvestment,
			ProfitRate: cfg.Account.InitialProfitRate,
		},
		ResolutionDelay:   delay,
		AutoTradeInterval: cfg.Engine.AutoTradeInterval,
		StakeFloor:        cfg.Engine.StakeFloor,
		MaxLedgerRecords:  cfg.Engine.MaxLedgerRecords,
	}
}

// Close releases the engine and store if the App opened them.
func (a *App) Close() error {
	if !a.owned {
		return nil
	}
	a.owned = false
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// reportedError marks an error whose message has already been shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already printed by the command that
// returned it.
func IsReported(err error) bool {
	var r *reportedError
	return apperrors.As(err, &r)
}

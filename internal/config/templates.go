package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Binary Trader Configuration

[account]
# Starting values, used only until the first value is persisted
initial_balance = 10000.0
initial_investment = 1.0
# Percentage of the stake paid as profit on a win (0-100)
initial_profit_rate = 80.0

[engine]
# Delay between placing a trade and its resolution
resolution_delay = "1500ms"
# Period of the auto-trade (martingale) loop
auto_trade_interval = "2s"
# Stake the auto-trade loop resets to after a win
stake_floor = 1.0
# Keep at most this many trades in history (0 = unlimited)
max_ledger_records = 0

[store]
# SQLite database holding balance, stake, profit rate and history
# path = "~/.config/binary-trader/bintrade.db"

[logging]
# debug, info, warn, error
level = "info"
console = false
file = true
max_size = 20
max_backups = 3
max_age = 30

[ui]
color_enabled = true
currency_symbol = "$"
time_format = "2006-01-02 15:04:05"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

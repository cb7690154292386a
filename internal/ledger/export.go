package ledger

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"binary-trader/internal/models"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type exportDoc struct {
	Summary Summary              `json:"summary" yaml:"summary"`
	Trades  []models.TradeRecord `json:"trades" yaml:"trades"`
}

// Export writes records and their summary to w in the given format.
func Export(w io.Writer, records []models.TradeRecord, format string) error {
	doc := exportDoc{
		Summary: Summarize(records),
		Trades:  records,
	}
	if doc.Trades == nil {
		doc.Trades = []models.TradeRecord{}
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q (must be json or yaml)", format)
	}
}

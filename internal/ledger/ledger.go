// Package ledger keeps the persisted, newest-first history of resolved trades.
package ledger

import (
	"encoding/json"
	"fmt"

	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

// Ledger is an append-only sequence of trade records, newest first.
// It is owned by the trade engine, which serialises access to it.
type Ledger struct {
	kv         store.KVStore
	records    []models.TradeRecord
	maxRecords int
}

// Load reads the ledger from kv. A missing or malformed history yields an
// empty ledger; the parse error is returned for logging only.
// maxRecords <= 0 keeps every record.
func Load(kv store.KVStore, maxRecords int) (*Ledger, error) {
	l := &Ledger{
		kv:         kv,
		records:    make([]models.TradeRecord, 0),
		maxRecords: maxRecords,
	}

	raw, ok, err := kv.Get(store.KeyTradeHistory)
	if err != nil {
		return l, apperrors.NewPersistenceParseError(store.KeyTradeHistory, "", err)
	}
	if !ok || raw == "" {
		return l, nil
	}

	var records []models.TradeRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return l, apperrors.NewPersistenceParseError(store.KeyTradeHistory, raw, err)
	}
	if records != nil {
		l.records = records
	}
	l.truncate()
	return l, nil
}

// Prepend adds r as the newest record and persists the ledger. Non-finite
// amounts are stored as 0 so the history stays encodable.
func (l *Ledger) Prepend(r models.TradeRecord) error {
	l.records = append([]models.TradeRecord{r.Finite()}, l.records...)
	l.truncate()
	return l.save()
}

// Clear removes every record and persists the empty ledger.
func (l *Ledger) Clear() error {
	l.records = l.records[:0]
	return l.save()
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the records, newest first.
func (l *Ledger) Records() []models.TradeRecord {
	out := make([]models.TradeRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) truncate() {
	if l.maxRecords > 0 && len(l.records) > l.maxRecords {
		l.records = l.records[:l.maxRecords]
	}
}

func (l *Ledger) save() error {
	data, err := json.Marshal(l.records)
	if err != nil {
		return fmt.Errorf("encoding trade history: %w", err)
	}
	return l.kv.Set(store.KeyTradeHistory, string(data))
}

// Package store provides data persistence interfaces and implementations.
package store

import (
	"math"
	"strconv"
	"strings"

	apperrors "binary-trader/internal/errors"
)

// Keys under which the simulator persists its state.
const (
	KeyBalance      = "balance"
	KeyInvestment   = "investment"
	KeyProfitRate   = "profit"
	KeyTradeResult  = "tradeResult"
	KeyTradeHistory = "tradeHistory"
)

// KVStore defines the interface for durable key-value persistence.
// Reads and writes are synchronous.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Close releases the underlying resources.
	Close() error
}

// LoadFloat reads a decimal value. A missing key returns def with a nil error;
// an unreadable, malformed or non-finite value returns def together with a
// *PersistenceParseError the caller may log. The error is never fatal.
func LoadFloat(kv KVStore, key string, def float64) (float64, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return def, apperrors.NewPersistenceParseError(key, "", err)
	}
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def, apperrors.NewPersistenceParseError(key, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def, apperrors.NewPersistenceParseError(key, raw, nil)
	}
	return v, nil
}

// LoadString reads a plain string value, falling back to def when absent or empty.
func LoadString(kv KVStore, key, def string) (string, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return def, apperrors.NewPersistenceParseError(key, "", err)
	}
	if !ok || raw == "" {
		return def, nil
	}
	return raw, nil
}

// FormatFloat encodes a decimal value for storage using the shortest
// representation that parses back to the same float64.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any finite decimal, storing it and loading it back through a
// freshly opened database yields the identical value.
func TestProperty_FloatRoundTripAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "roundtrip.db")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	keyGen := gen.OneConstOf(KeyBalance, KeyInvestment, KeyProfitRate)

	properties.Property("save then reopen produces equal value", prop.ForAll(
		func(key string, v float64) bool {
			s, err := NewSQLiteStore(dbPath)
			if err != nil {
				t.Logf("open: %v", err)
				return false
			}
			if err := s.Set(key, FormatFloat(v)); err != nil {
				s.Close()
				return false
			}
			s.Close()

			reopened, err := NewSQLiteStore(dbPath)
			if err != nil {
				return false
			}
			defer reopened.Close()

			got, err := LoadFloat(reopened, key, -1)
			return err == nil && got == v
		},
		keyGen,
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

// Property: arbitrary strings survive a round trip unchanged.
func TestProperty_StringRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "strings.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("set then get returns the same string", prop.ForAll(
		func(v string) bool {
			if err := s.Set(KeyTradeResult, v); err != nil {
				return false
			}
			got, ok, err := s.Get(KeyTradeResult)
			return err == nil && ok && got == v
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

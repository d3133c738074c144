package catalog

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Model status values
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Model is one AI-model descriptor mirrored from the external catalog.
// The sync service owns the data; the store only persists and retrieves it.
type Model struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Description       string         `db:"description"`
	ContextLength     int            `db:"context_length"`
	PricingPrompt     string         `db:"pricing_prompt"`     // price per prompt token, decimal string
	PricingCompletion string         `db:"pricing_completion"` // price per completion token, decimal string
	Modality          string         `db:"modality"`
	Tokenizer         string         `db:"tokenizer"`
	IsModerated       bool           `db:"is_moderated"`
	Tags              pq.StringArray `db:"tags"`
	Status            string         `db:"status"`
	Deprecated        bool           `db:"deprecated"`
	IsFree            bool           `db:"is_free"` // derived: both prices are zero
	LastUpdated       time.Time      `db:"last_updated"`
}

// ComputeIsFree recomputes the derived is_free flag from the pricing strings.
// Called on every upsert so the flag can never drift from the prices.
func (m *Model) ComputeIsFree() {
	m.IsFree = IsFreePricing(m.PricingPrompt, m.PricingCompletion)
}

// IsFreePricing reports whether both price strings are zero.
// Prices are compared exactly; "0.00" and "0" are both free,
// anything unparseable is treated as paid.
func IsFreePricing(prompt, completion string) bool {
	return isZeroPrice(prompt) && isZeroPrice(completion)
}

func isZeroPrice(price string) bool {
	if price == "" {
		return true
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return false
	}
	return d.IsZero()
}

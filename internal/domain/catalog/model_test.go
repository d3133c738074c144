package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFreePricing(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		completion string
		want       bool
	}{
		{"both zero", "0", "0", true},
		{"zero with decimals", "0.00", "0.000000", true},
		{"both empty", "", "", true},
		{"paid prompt", "0.000001", "0", false},
		{"paid completion", "0", "0.000002", false},
		{"unparseable treated as paid", "free", "0", false},
		{"negative is not free", "-0.01", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFreePricing(tt.prompt, tt.completion))
		})
	}
}

func TestModel_ComputeIsFree(t *testing.T) {
	m := &Model{PricingPrompt: "0", PricingCompletion: "0"}
	m.ComputeIsFree()
	assert.True(t, m.IsFree)

	m.PricingPrompt = "0.000001"
	m.ComputeIsFree()
	assert.False(t, m.IsFree)
}

package llm

import (
	"math"
	"testing"
)

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name          string
		model         string
		input, output int
		want          float64
	}{
		{"gpt-4o", "gpt-4o", 1000, 1000, 0.02},
		{"haiku", "claude-3-haiku-20240307", 2000, 400, 0.001},
		{"fractional tokens", "gpt-4", 500, 250, 0.03},
		{"zero tokens", "gpt-4", 0, 0, 0},
		{"unknown model is free", "gpt-9000", 1000, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCost(tt.model, tt.input, tt.output)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateCost(%q, %d, %d) = %v, want %v", tt.model, tt.input, tt.output, got, tt.want)
			}
		})
	}
}

func TestAllCatalogModelsPriced(t *testing.T) {
	for model, prices := range costPerToken {
		if prices[0] <= 0 || prices[1] <= 0 {
			t.Errorf("%s has non-positive pricing %v", model, prices)
		}
	}
}

package core_test

import (
	"encoding/json"
	"testing"

	"pnl-engine/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Acme Ltd":             "acme",
		"  ACME   Limited. ":   "acme",
		"Café Müller GmbH":     "cafe muller",
		"O'Brien & Sons, Inc.": "o brien sons",
		"the Widget Co":        "widget",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, core.NormalizeName(in), "input %q", in)
	}
}

func TestTokenNameScorer(t *testing.T) {
	s := core.DefaultNameScorer()
	tests := []struct {
		name       string
		a, b       string
		wantPoints float64
		wantReason string
	}{
		{"exact after normalisation", "Acme Ltd", "ACME LIMITED", 20, "Customer name matches"},
		{"containment", "Northwind", "Northwind Traders", 15, "Customer name contained in contact name"},
		{"token overlap", "Blue River Coffee Roasters", "Blue River Coffee Shop", 12, "Customer name partially matches (60%)"},
		{"too little overlap", "Blue Sky Imports", "Red River Exports", 0, ""},
		{"blank", "", "Acme", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, reason := s.Score(tt.a, tt.b, core.NameWeight)
			assert.InDelta(t, tt.wantPoints, pts, 0.01)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestOrder_CandidateNames(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"customer":        map[string]any{"name": "Jane Doe", "company": "Doe Holdings"},
		"billing_address": map[string]any{"company": "Acme Ltd"},
		"total":           12.5,
	})
	o := core.Order{
		CustomerName:     "Acme Ltd",
		AltCustomerNames: []string{"Acme Trading", " "},
		RawSource:        raw,
	}
	assert.Equal(t, []string{"Acme Ltd", "Acme Trading", "Jane Doe", "Doe Holdings"}, o.CandidateNames())

	o.RawSource = json.RawMessage(`{not json`)
	assert.Equal(t, []string{"Acme Ltd", "Acme Trading"}, o.CandidateNames())
}

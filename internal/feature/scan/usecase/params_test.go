package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/usecase"
)

// TestNormalizeTickers は区切り文字、大文字化、重複排除をテストします。
func TestNormalizeTickers(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		in       []string
		expected []string
	}{
		{name: "mixed separators", in: []string{"btc, eth;sol\nxrp\tada"}, expected: []string{"BTC", "ETH", "SOL", "XRP", "ADA"}},
		{name: "duplicates across entries", in: []string{"BTC", "btc", " eth "}, expected: []string{"BTC", "ETH"}},
		{name: "empty", in: []string{" , ;"}, expected: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, usecase.NormalizeTickers(tc.in))
		})
	}
}

// TestScanParams_Normalize は既定値の補完をテストします。
func TestScanParams_Normalize(t *testing.T) {
	t.Parallel()
	p := usecase.ScanParams{Tickers: []string{"btc"}}.Normalize()
	assert.Equal(t, usecase.ModeTop, p.Mode)
	assert.Equal(t, entity.Daily, p.Granularity)
	assert.Equal(t, usecase.CloseExchange, p.CloseMode)
	assert.Equal(t, []string{"BTC"}, p.Tickers)
}

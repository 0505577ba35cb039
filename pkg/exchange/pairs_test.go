package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitAssetQuote(t *testing.T) {
	tests := []struct {
		pair  string
		asset string
		quote string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"ethbtc", "ETH", "BTC"},
		{"SOLFDUSD", "SOL", "FDUSD"},
		{"BTC/USDT", "BTC", "USDT"},
		{"ETH-EUR", "ETH", "EUR"},
		{"USDT", "", ""},
		{"XYZABC", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pair, func(t *testing.T) {
			asset, quote := SplitAssetQuote(tt.pair)
			assert.Equal(t, tt.asset, asset)
			assert.Equal(t, tt.quote, quote)
		})
	}
}

func TestPairService_Register(t *testing.T) {
	service := NewPairService(map[string]AssetQuote{"1000PEPEUSDC": {Asset: "1000PEPE", Quote: "USDC"}})
	service.Register("wbtcbtc", AssetQuote{Asset: "WBTC", Quote: "BTC"})

	asset, quote := service.Split("1000PEPEUSDC")
	assert.Equal(t, "1000PEPE", asset)
	assert.Equal(t, "USDC", quote)

	asset, quote = service.Split("WBTCBTC")
	assert.Equal(t, "WBTC", asset)
	assert.Equal(t, "BTC", quote)
}

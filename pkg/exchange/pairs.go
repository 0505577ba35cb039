package exchange

import (
	"sort"
	"strings"
	"sync"
)

// AssetQuote is the base and quote split of a trading pair
type AssetQuote struct {
	Asset string `json:"asset" mapstructure:"asset"`
	Quote string `json:"quote" mapstructure:"quote"`
}

// knownQuotes are tried as pair suffixes, longest first
var knownQuotes = []string{
	"FDUSD", "USDT", "USDC", "TUSD", "BUSD", "DAI",
	"BTC", "ETH", "BNB", "EUR", "USD", "BRL", "TRY", "GBP",
}

// PairService resolves pairs from explicit registrations and quote suffixes
type PairService struct {
	mu      sync.RWMutex
	pairMap map[string]AssetQuote
	quotes  []string
}

var defaultPairService = NewPairService(nil)

func NewPairService(pairs map[string]AssetQuote) *PairService {
	service := &PairService{
		pairMap: make(map[string]AssetQuote, len(pairs)),
		quotes:  append([]string(nil), knownQuotes...),
	}
	for pair, aq := range pairs {
		service.pairMap[strings.ToUpper(pair)] = aq
	}
	sort.SliceStable(service.quotes, func(i, j int) bool {
		return len(service.quotes[i]) > len(service.quotes[j])
	})
	return service
}

// Register records an explicit split for pair
func (p *PairService) Register(pair string, aq AssetQuote) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pairMap[strings.ToUpper(pair)] = aq
}

// Split returns the asset and quote of pair, or empty strings when unknown.
// "BTC/USDT", "BTC-USDT" and "BTCUSDT" all resolve to BTC and USDT.
func (p *PairService) Split(pair string) (asset, quote string) {
	pair = strings.ToUpper(strings.TrimSpace(pair))

	p.mu.RLock()
	aq, ok := p.pairMap[pair]
	p.mu.RUnlock()
	if ok {
		return aq.Asset, aq.Quote
	}

	if base, q, found := strings.Cut(strings.ReplaceAll(pair, "/", "-"), "-"); found && base != "" && q != "" {
		return base, q
	}

	for _, q := range p.quotes {
		if strings.HasSuffix(pair, q) && len(pair) > len(q) {
			return pair[:len(pair)-len(q)], q
		}
	}

	return "", ""
}

// SplitAssetQuote splits pair with the default pair service
func SplitAssetQuote(pair string) (asset, quote string) {
	return defaultPairService.Split(pair)
}

// RegisterPair adds an explicit split to the default pair service
func RegisterPair(pair, asset, quote string) {
	defaultPairService.Register(pair, AssetQuote{Asset: asset, Quote: quote})
}

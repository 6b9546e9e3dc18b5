package processors

import "strings"

// NativeToken is the platform's reward currency; referral bonuses are paid in
// it and the loyalty tier depends on its portfolio share.
const NativeToken = "NEXO"

// CurrencyClass tags a symbol once at ledger-load time so downstream code
// never re-derives it by string matching.
type CurrencyClass int

const (
	ClassCrypto CurrencyClass = iota
	ClassStableCoin
	ClassFiat
	ClassUnknown
)

func (c CurrencyClass) String() string {
	switch c {
	case ClassCrypto:
		return "crypto"
	case ClassStableCoin:
		return "stablecoin"
	case ClassFiat:
		return "fiat"
	default:
		return "unknown"
	}
}

// CurrencyInfo is one entry of the static currency registry.
type CurrencyInfo struct {
	Symbol      string        `json:"symbol"`
	Name        string        `json:"name"`
	Class       CurrencyClass `json:"-"`
	ClassName   string        `json:"class"`
	CoingeckoID string        `json:"coingecko_id,omitempty"`
	// Supported marks symbols the enrichment layer can price. Unsupported
	// symbols still get full balance tracking, just no fiat valuation.
	Supported bool `json:"supported"`
}

var registry = map[string]CurrencyInfo{
	"BTC":  {Symbol: "BTC", Name: "Bitcoin", Class: ClassCrypto, CoingeckoID: "bitcoin", Supported: true},
	"BCH":  {Symbol: "BCH", Name: "Bitcoin Cash", Class: ClassCrypto, CoingeckoID: "bitcoin-cash", Supported: true},
	"LTC":  {Symbol: "LTC", Name: "Litecoin", Class: ClassCrypto, CoingeckoID: "litecoin", Supported: true},
	"EOS":  {Symbol: "EOS", Name: "EOS", Class: ClassCrypto, CoingeckoID: "eos", Supported: true},
	"BNB":  {Symbol: "BNB", Name: "BNB", Class: ClassCrypto, CoingeckoID: "binancecoin", Supported: true},
	"XLM":  {Symbol: "XLM", Name: "Stellar", Class: ClassCrypto, CoingeckoID: "stellar", Supported: true},
	"ETH":  {Symbol: "ETH", Name: "Ethereum", Class: ClassCrypto, CoingeckoID: "ethereum", Supported: true},
	"XRP":  {Symbol: "XRP", Name: "XRP", Class: ClassCrypto, CoingeckoID: "ripple", Supported: true},
	"PAXG": {Symbol: "PAXG", Name: "PAX Gold", Class: ClassCrypto, CoingeckoID: "pax-gold", Supported: true},
	"TRX":  {Symbol: "TRX", Name: "TRON", Class: ClassCrypto, CoingeckoID: "tron", Supported: true},
	"ADA":  {Symbol: "ADA", Name: "Cardano", Class: ClassCrypto, CoingeckoID: "cardano", Supported: true},
	"DOT":  {Symbol: "DOT", Name: "Polkadot", Class: ClassCrypto, CoingeckoID: "polkadot", Supported: true},
	"DOGE": {Symbol: "DOGE", Name: "Dogecoin", Class: ClassCrypto, CoingeckoID: "dogecoin", Supported: true},
	"SOL":  {Symbol: "SOL", Name: "Solana", Class: ClassCrypto, CoingeckoID: "solana", Supported: true},
	"NEXO": {Symbol: "NEXO", Name: "NEXO Token", Class: ClassCrypto, CoingeckoID: "nexo", Supported: true},
	"LINK": {Symbol: "LINK", Name: "Chainlink", Class: ClassCrypto, CoingeckoID: "chainlink", Supported: true},

	"DAI":  {Symbol: "DAI", Name: "Dai", Class: ClassStableCoin, CoingeckoID: "dai", Supported: true},
	"TUSD": {Symbol: "TUSD", Name: "TrueUSD", Class: ClassStableCoin, CoingeckoID: "true-usd", Supported: true},
	"USDP": {Symbol: "USDP", Name: "Pax Dollar", Class: ClassStableCoin, CoingeckoID: "paxos-standard", Supported: true},
	"USDC": {Symbol: "USDC", Name: "USD Coin", Class: ClassStableCoin, CoingeckoID: "usd-coin", Supported: true},
	"USDT": {Symbol: "USDT", Name: "Tether", Class: ClassStableCoin, CoingeckoID: "tether", Supported: true},

	"EUR": {Symbol: "EUR", Name: "Euro", Class: ClassFiat, Supported: true},
	"USD": {Symbol: "USD", Name: "US Dollar", Class: ClassFiat, Supported: true},
	"GBP": {Symbol: "GBP", Name: "Pound Sterling", Class: ClassFiat, Supported: true},
}

// Lookup resolves a symbol against the static registry. Unknown symbols get
// a ClassUnknown entry with Supported=false; balance tracking proceeds
// normally for them, they are simply flagged unpriced for display.
func Lookup(symbol string) CurrencyInfo {
	if info, ok := registry[symbol]; ok {
		info.ClassName = info.Class.String()
		return info
	}
	return CurrencyInfo{Symbol: symbol, Name: symbol, Class: ClassUnknown, ClassName: ClassUnknown.String()}
}

// IsFiatX reports whether the symbol is a platform-internal pegged fiat
// token (EURX and friends).
func IsFiatX(symbol string) bool {
	if !strings.HasSuffix(symbol, "X") {
		return false
	}
	base := symbol[:len(symbol)-1]
	info, ok := registry[base]
	return ok && info.Class == ClassFiat
}

// NormalizeFiatX maps a pegged fiat token onto its underlying fiat currency
// so EURX and EUR accumulate into the same balance entry.
func NormalizeFiatX(symbol string) string {
	if IsFiatX(symbol) {
		return symbol[:len(symbol)-1]
	}
	return symbol
}

package domain

import "strings"

// Feed identifies one upstream streaming price source.
type Feed string

const (
	FeedCrypto    Feed = "CRYPTO"
	FeedCommodity Feed = "COMMODITY"
)

// Instrument is one tradable symbol. The set is fixed: three crypto
// assets quoted in USDT plus spot gold from the commodity feed.
type Instrument string

const (
	BTC Instrument = "BTC"
	ETH Instrument = "ETH"
	SOL Instrument = "SOL"
	XAU Instrument = "XAU"
)

// Instruments lists all known instruments in display order.
var Instruments = []Instrument{BTC, ETH, SOL, XAU}

const (
	cryptoQuote    = "USDT"
	commodityToken = "OANDA:XAU_USD"
)

func (i Instrument) Valid() bool {
	switch i {
	case BTC, ETH, SOL, XAU:
		return true
	}
	return false
}

func (i Instrument) Feed() Feed {
	if i == XAU {
		return FeedCommodity
	}
	return FeedCrypto
}

// CryptoPair returns the crypto feed trading pair, e.g. BTC -> "BTCUSDT".
func (i Instrument) CryptoPair() string {
	return string(i) + cryptoQuote
}

// StreamName returns the crypto feed trade-stream name, e.g. "btcusdt@trade".
func (i Instrument) StreamName() string {
	return strings.ToLower(i.CryptoPair()) + "@trade"
}

// CommodityToken returns the commodity feed subscription token.
func (i Instrument) CommodityToken() string {
	return commodityToken
}

// FromCryptoPair maps a crypto feed pair back to an instrument by
// stripping the quote suffix. Unknown pairs return ok=false.
func FromCryptoPair(pair string) (Instrument, bool) {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if !strings.HasSuffix(p, cryptoQuote) {
		return "", false
	}
	i := Instrument(strings.TrimSuffix(p, cryptoQuote))
	if i.Feed() != FeedCrypto || !i.Valid() {
		return "", false
	}
	return i, true
}

// FromCommodityToken maps a commodity feed symbol code back to an instrument.
func FromCommodityToken(tok string) (Instrument, bool) {
	if strings.TrimSpace(tok) == commodityToken {
		return XAU, true
	}
	return "", false
}

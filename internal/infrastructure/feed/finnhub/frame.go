package finnhub

import (
	"encoding/json"
	"strconv"
	"time"

	"papertrade/internal/domain"
)

// flexPrice tolerates the upstream quirk of sending p as either a JSON
// number or a string. Unparsable values decode to zero and get dropped
// by the price>0 check instead of faulting the whole frame.
type flexPrice float64

func (p *flexPrice) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*p = 0
		return nil
	}
	*p = flexPrice(n)
	return nil
}

type tradeItem struct {
	Symbol string    `json:"s"`
	Price  flexPrice `json:"p"`
}

type tradeFrame struct {
	Type string      `json:"type"`
	Data []tradeItem `json:"data"`
}

// ParseFrame normalizes one raw inbound frame into zero or one tick.
// A trade frame may batch several events; only the last one counts
// (latest-wins within a batch). Acks, pings and anything malformed are
// dropped silently.
func ParseFrame(b []byte, now time.Time) (domain.PriceTick, bool) {
	var f tradeFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return domain.PriceTick{}, false
	}
	if f.Type != "trade" || len(f.Data) == 0 {
		return domain.PriceTick{}, false
	}

	last := f.Data[len(f.Data)-1]
	inst, ok := domain.FromCommodityToken(last.Symbol)
	if !ok {
		return domain.PriceTick{}, false
	}
	price := float64(last.Price)
	if price <= 0 {
		return domain.PriceTick{}, false
	}
	return domain.PriceTick{Instrument: inst, Price: price, ObservedAt: now}, true
}

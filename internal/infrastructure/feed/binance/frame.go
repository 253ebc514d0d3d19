package binance

import (
	"encoding/json"
	"strconv"
	"time"

	"papertrade/internal/domain"
)

// frame covers both the combined-stream envelope {stream,data:{...}}
// and the bare per-stream shape {s,p}.
type frame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`

	Symbol string `json:"s"`
	Price  string `json:"p"`
}

type tradeEvent struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
}

// ParseFrame normalizes one raw inbound frame into zero or one tick.
// Anything malformed, or any pair outside the known instrument set, is
// dropped as noise: upstream feeds are not under our control and must
// never fault ingestion.
func ParseFrame(b []byte, now time.Time) (domain.PriceTick, bool) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return domain.PriceTick{}, false
	}

	ev := tradeEvent{Symbol: f.Symbol, Price: f.Price}
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return domain.PriceTick{}, false
		}
	}

	inst, ok := domain.FromCryptoPair(ev.Symbol)
	if !ok {
		return domain.PriceTick{}, false
	}
	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil || price <= 0 {
		return domain.PriceTick{}, false
	}
	return domain.PriceTick{Instrument: inst, Price: price, ObservedAt: now}, true
}

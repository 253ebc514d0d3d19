package binance

import (
	"testing"
	"time"

	"papertrade/internal/domain"
)

func TestParseFrameBareTrade(t *testing.T) {
	now := time.Now()
	tick, ok := ParseFrame([]byte(`{"e":"trade","s":"BTCUSDT","p":"65000.5"}`), now)
	if !ok {
		t.Fatalf("expected tick")
	}
	if tick.Instrument != domain.BTC || tick.Price != 65000.5 {
		t.Errorf("tick = %+v", tick)
	}
	if !tick.ObservedAt.Equal(now) {
		t.Errorf("observedAt not set")
	}
}

func TestParseFrameCombinedEnvelope(t *testing.T) {
	raw := `{"stream":"ethusdt@trade","data":{"e":"trade","s":"ETHUSDT","p":"3200.12"}}`
	tick, ok := ParseFrame([]byte(raw), time.Now())
	if !ok || tick.Instrument != domain.ETH || tick.Price != 3200.12 {
		t.Errorf("tick = %+v ok=%v", tick, ok)
	}
}

func TestParseFrameDropsNoise(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`{}`,
		`{"s":"BTCUSDT"}`,                       // no price
		`{"s":"BTCUSDT","p":"abc"}`,             // unparsable price
		`{"s":"BTCUSDT","p":"-1"}`,              // non-positive
		`{"s":"DOGEUSDT","p":"0.4"}`,            // unknown instrument
		`{"s":"XAUUSDT","p":"2400"}`,            // commodity pair does not belong here
		`{"stream":"x","data":"oops"}`,          // wrong data shape
		`{"result":null,"id":1}`,                // subscription ack
		`{"stream":"btcusdt@trade","data":{}}`,  // empty event
		`[{"s":"BTCUSDT","p":"65000"}]`,         // array at top level
	}
	for _, raw := range cases {
		if tick, ok := ParseFrame([]byte(raw), time.Now()); ok {
			t.Errorf("frame %q produced tick %+v, want drop", raw, tick)
		}
	}
}

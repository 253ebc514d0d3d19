package finnhub

import (
	"testing"
	"time"

	"papertrade/internal/domain"
)

func TestParseFrameBatchLatestWins(t *testing.T) {
	raw := `{"type":"trade","data":[{"s":"OANDA:XAU_USD","p":"2400"},{"s":"OANDA:XAU_USD","p":"2401"}]}`
	tick, ok := ParseFrame([]byte(raw), time.Now())
	if !ok {
		t.Fatalf("expected tick")
	}
	if tick.Instrument != domain.XAU || tick.Price != 2401 {
		t.Errorf("tick = %+v, want XAU 2401", tick)
	}
}

func TestParseFrameNumericPrice(t *testing.T) {
	raw := `{"type":"trade","data":[{"s":"OANDA:XAU_USD","p":2405.25,"t":1700000000000,"v":1}]}`
	tick, ok := ParseFrame([]byte(raw), time.Now())
	if !ok || tick.Price != 2405.25 {
		t.Errorf("tick = %+v ok=%v", tick, ok)
	}
}

func TestParseFrameDropsNoise(t *testing.T) {
	cases := []string{
		``,
		`garbage`,
		`{"type":"ping"}`,
		`{"type":"trade"}`,                                  // no data
		`{"type":"trade","data":[]}`,                        // empty batch
		`{"type":"subscribe","symbol":"OANDA:XAU_USD"}`,     // ack echo
		`{"type":"trade","data":[{"s":"AAPL","p":190.5}]}`,  // foreign symbol
		`{"type":"trade","data":[{"s":"OANDA:XAU_USD"}]}`,   // no price
		`{"type":"trade","data":[{"s":"OANDA:XAU_USD","p":"n/a"}]}`,
		`{"type":"trade","data":[{"s":"OANDA:XAU_USD","p":-3}]}`,
	}
	for _, raw := range cases {
		if tick, ok := ParseFrame([]byte(raw), time.Now()); ok {
			t.Errorf("frame %q produced tick %+v, want drop", raw, tick)
		}
	}
}

func TestParseFrameBatchTailDecides(t *testing.T) {
	// last element is for another symbol: whole frame drops even though
	// an earlier element matched
	raw := `{"type":"trade","data":[{"s":"OANDA:XAU_USD","p":2400},{"s":"AAPL","p":190}]}`
	if _, ok := ParseFrame([]byte(raw), time.Now()); ok {
		t.Errorf("expected drop when batch tail is a foreign symbol")
	}
}

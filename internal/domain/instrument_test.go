package domain

import "testing"

func TestFromCryptoPair(t *testing.T) {
	cases := []struct {
		pair string
		want Instrument
		ok   bool
	}{
		{"BTCUSDT", BTC, true},
		{"btcusdt", BTC, true},
		{" ETHUSDT ", ETH, true},
		{"SOLUSDT", SOL, true},
		{"DOGEUSDT", "", false}, // not a known instrument
		{"BTCUSD", "", false},   // wrong quote
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := FromCryptoPair(c.pair)
		if ok != c.ok || got != c.want {
			t.Errorf("FromCryptoPair(%q) = %v,%v want %v,%v", c.pair, got, ok, c.want, c.ok)
		}
	}
}

func TestFromCommodityToken(t *testing.T) {
	if got, ok := FromCommodityToken("OANDA:XAU_USD"); !ok || got != XAU {
		t.Errorf("expected XAU, got %v ok=%v", got, ok)
	}
	if _, ok := FromCommodityToken("OANDA:EUR_USD"); ok {
		t.Errorf("unknown token must not map")
	}
}

func TestInstrumentFeedSplit(t *testing.T) {
	for _, i := range Instruments {
		want := FeedCrypto
		if i == XAU {
			want = FeedCommodity
		}
		if i.Feed() != want {
			t.Errorf("%s feed = %s, want %s", i, i.Feed(), want)
		}
	}
}

func TestStreamName(t *testing.T) {
	if got := SOL.StreamName(); got != "solusdt@trade" {
		t.Errorf("stream name = %q", got)
	}
}

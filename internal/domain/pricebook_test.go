package domain

import "testing"

func TestPriceBookAbsentUntilFirstTick(t *testing.T) {
	book := NewPriceBook()

	if _, ok := book.Get(BTC); ok {
		t.Fatalf("expected BTC absent before first tick")
	}

	book.Set(BTC, 65000.5)
	price, ok := book.Get(BTC)
	if !ok || price != 65000.5 {
		t.Fatalf("expected BTC=65000.5, got %v ok=%v", price, ok)
	}
}

func TestPriceBookLastWriteWins(t *testing.T) {
	book := NewPriceBook()

	// processing order wins, regardless of price value ordering
	for _, p := range []float64{65000, 64990, 65010, 64500} {
		book.Set(BTC, p)
	}

	price, ok := book.Get(BTC)
	if !ok || price != 64500 {
		t.Errorf("expected last processed price 64500, got %v", price)
	}
}

func TestPriceBookDirection(t *testing.T) {
	book := NewPriceBook()

	book.Set(ETH, 3200)
	if _, dir, _ := book.Quote(ETH); dir != DirectionSame {
		t.Errorf("first tick direction = %v, want same", dir)
	}

	book.Set(ETH, 3210)
	if _, dir, _ := book.Quote(ETH); dir != DirectionUp {
		t.Errorf("direction after rise = %v, want up", dir)
	}

	book.Set(ETH, 3100)
	if _, dir, _ := book.Quote(ETH); dir != DirectionDown {
		t.Errorf("direction after fall = %v, want down", dir)
	}
}

func TestPriceBookSnapshotIsCopy(t *testing.T) {
	book := NewPriceBook()
	book.Set(XAU, 2400)

	snap := book.Snapshot()
	snap[XAU] = 1

	if price, _ := book.Get(XAU); price != 2400 {
		t.Errorf("snapshot mutation leaked into book: %v", price)
	}
}

package monitor

import (
	"strings"
	"testing"

	"tokenagg/internal/domain/model"
)

func TestFormatterDirection(t *testing.T) {
	f := NewFormatter(3)

	if d := f.Direction("A", 1); d != DirSame {
		t.Fatalf("first sighting = %v, want same", d)
	}
	if d := f.Direction("A", 2); d != DirUp {
		t.Fatalf("1 -> 2 = %v, want up", d)
	}
	if d := f.Direction("A", 1.5); d != DirDown {
		t.Fatalf("2 -> 1.5 = %v, want down", d)
	}
}

func TestRenderUpdateTruncatesToTop(t *testing.T) {
	f := NewFormatter(2)
	line := f.RenderUpdate(model.PriceUpdate{
		Query:  "doge",
		Window: model.Window24h,
		Data: []model.TokenRecord{
			{Address: "a1", Ticker: "AAA", PriceUSD: 1.5, Volume24h: 2500},
			{Address: "b1", Ticker: "BBB", PriceUSD: 0.000123, Volume24h: 3_000_000},
			{Address: "c1", Ticker: "CCC", PriceUSD: 9},
		},
	})

	for _, want := range []string{"doge", "n=3", "AAA", "$1.50", "V:2.50K", "BBB", "$0.000123", "V:3.00M"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %q", want, line)
		}
	}
	if strings.Contains(line, "CCC") {
		t.Errorf("line should stop at top 2: %q", line)
	}
}

func TestRenderSpikes(t *testing.T) {
	f := NewFormatter(0)

	p := f.RenderPriceSpike(model.PriceSpike{Address: "So11111111111111111111111111111111111111112", OldPrice: 100, NewPrice: 100.6, Change: 0.006})
	if !strings.Contains(p, "So11..1112") || !strings.Contains(p, "0.60%") {
		t.Errorf("price spike line = %q", p)
	}
	v := f.RenderVolumeSpike(model.VolumeSpike{Address: "A", OldVolume: 10, NewVolume: 25, Factor: 2.5})
	if !strings.Contains(v, "x2.50") {
		t.Errorf("volume spike line = %q", v)
	}
	e := f.RenderError(model.PriceError{Query: "doge", Window: model.Window1h, Message: "Fetch failed"})
	if !strings.Contains(e, "doge 1h: Fetch failed") {
		t.Errorf("error line = %q", e)
	}
}

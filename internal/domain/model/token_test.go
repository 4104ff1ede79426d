package model

import "testing"

func TestParseWindow(t *testing.T) {
	cases := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"1h", Window1h, false},
		{" 24H ", Window24h, false},
		{"7d", Window7d, false},
		{"30d", Window24h, true},
		{"", Window24h, true},
	}
	for _, c := range cases {
		got, err := ParseWindow(c.in)
		if got != c.want || (err != nil) != c.wantErr {
			t.Errorf("ParseWindow(%q) = %q, %v; want %q, err=%v", c.in, got, err, c.want, c.wantErr)
		}
	}
}

func TestParseSortBy(t *testing.T) {
	cases := []struct {
		in      string
		want    SortBy
		wantErr bool
	}{
		{"volume", SortVolume, false},
		{"price", SortPrice, false},
		{"marketCap", SortMarketCap, false},
		{"liquidity", SortVolume, true},
	}
	for _, c := range cases {
		got, err := ParseSortBy(c.in)
		if got != c.want || (err != nil) != c.wantErr {
			t.Errorf("ParseSortBy(%q) = %q, %v; want %q, err=%v", c.in, got, err, c.want, c.wantErr)
		}
	}
}

func TestSortByValueFollowsWindow(t *testing.T) {
	tok := TokenRecord{PriceUSD: 2, MarketCap: 3, Volume1h: 10, Volume24h: 20, Volume7d: 70}

	if v := SortVolume.Value(tok, Window1h); v != 10 {
		t.Errorf("volume/1h = %v, want 10", v)
	}
	if v := SortVolume.Value(tok, Window7d); v != 70 {
		t.Errorf("volume/7d = %v, want 70", v)
	}
	if v := SortPrice.Value(tok, Window7d); v != 2 {
		t.Errorf("price = %v, want 2", v)
	}
	if v := SortMarketCap.Value(tok, Window1h); v != 3 {
		t.Errorf("marketCap = %v, want 3", v)
	}
}

package service

import (
	"fmt"
	"math"
	"testing"

	"tokenagg/internal/domain/model"
)

func volumeSeries(n int) []model.TokenRecord {
	out := make([]model.TokenRecord, n)
	for i := range out {
		out[i] = model.TokenRecord{Address: fmt.Sprintf("a%d", i), Volume24h: float64(i)}
	}
	return out
}

func volumes(items []model.TokenRecord) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.Volume24h
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPaginateFirstAndSecondPage(t *testing.T) {
	data := volumeSeries(10)

	first := Paginate(data, model.Window24h, model.SortVolume, 3, "")
	if got := volumes(first.Items); !equalFloats(got, []float64{9, 8, 7}) {
		t.Fatalf("first page = %v, want [9 8 7]", got)
	}
	if first.NextCursor == nil {
		t.Fatal("expected next cursor on first page")
	}

	second := Paginate(data, model.Window24h, model.SortVolume, 3, *first.NextCursor)
	if got := volumes(second.Items); !equalFloats(got, []float64{6, 5, 4}) {
		t.Fatalf("second page = %v, want [6 5 4]", got)
	}
}

// Following the cursor chain must visit every qualifying record exactly once.
func TestPaginateCursorChainCoversAll(t *testing.T) {
	data := volumeSeries(10) // a0 has zero volume and is filtered out

	seen := map[string]int{}
	var all []float64
	cursor := ""
	for pages := 0; pages < 20; pages++ {
		p := Paginate(data, model.Window24h, model.SortVolume, 4, cursor)
		for _, it := range p.Items {
			seen[it.Address]++
			all = append(all, it.Volume24h)
		}
		if p.NextCursor == nil {
			break
		}
		cursor = *p.NextCursor
	}

	if len(seen) != 9 {
		t.Fatalf("visited %d records, want 9", len(seen))
	}
	for addr, n := range seen {
		if n != 1 {
			t.Errorf("%s visited %d times", addr, n)
		}
	}
	for i := 1; i < len(all); i++ {
		if all[i] >= all[i-1] {
			t.Fatalf("not strictly descending at %d: %v", i, all)
		}
	}
}

func TestPaginateWindowGating(t *testing.T) {
	data := []model.TokenRecord{{Address: "x", Volume1h: 0, Volume24h: 5}}

	if p := Paginate(data, model.Window1h, model.SortVolume, 10, ""); len(p.Items) != 0 {
		t.Errorf("1h window: got %d items, want 0", len(p.Items))
	}
	if p := Paginate(data, model.Window24h, model.SortVolume, 10, ""); len(p.Items) != 1 {
		t.Errorf("24h window: got %d items, want 1", len(p.Items))
	}
}

func TestPaginateSortFields(t *testing.T) {
	data := []model.TokenRecord{
		{Address: "a", PriceUSD: 1, MarketCap: 300, Volume7d: 5},
		{Address: "b", PriceUSD: 3, MarketCap: 100, Volume7d: 50},
		{Address: "c", PriceUSD: 2, MarketCap: 200, Volume7d: 20},
	}

	cases := []struct {
		sort model.SortBy
		want string
	}{
		{model.SortPrice, "bca"},
		{model.SortMarketCap, "acb"},
		{model.SortVolume, "bca"},
	}
	for _, c := range cases {
		p := Paginate(data, model.Window7d, c.sort, 10, "")
		got := ""
		for _, it := range p.Items {
			got += it.Address
		}
		if got != c.want {
			t.Errorf("sort %s: got %s, want %s", c.sort, got, c.want)
		}
	}
}

func TestPaginateStableTies(t *testing.T) {
	data := []model.TokenRecord{
		{Address: "first", Volume24h: 1},
		{Address: "second", Volume24h: 1},
		{Address: "third", Volume24h: 1},
	}
	p := Paginate(data, model.Window24h, model.SortVolume, 10, "")
	for i, want := range []string{"first", "second", "third"} {
		if p.Items[i].Address != want {
			t.Fatalf("tie order changed: %v", p.Items)
		}
	}
}

func TestPaginateInvalidInputs(t *testing.T) {
	data := volumeSeries(5)

	p := Paginate(data, model.Window24h, model.SortVolume, 0, "")
	if len(p.Items) != 1 {
		t.Errorf("limit 0: got %d items, want 1", len(p.Items))
	}

	p = Paginate(data, model.Window24h, model.SortVolume, 2, "%%not-base64%%")
	if got := volumes(p.Items); !equalFloats(got, []float64{4, 3}) {
		t.Errorf("malformed cursor: got %v, want [4 3]", got)
	}

	p = Paginate(data, model.Window24h, model.SortVolume, 2, EncodeCursor(100))
	if len(p.Items) != 0 || p.NextCursor != nil {
		t.Errorf("cursor past end: got %v items, next=%v", len(p.Items), p.NextCursor)
	}

	p = Paginate(data, model.Window24h, model.SortVolume, math.MaxInt, EncodeCursor(1))
	if got := volumes(p.Items); !equalFloats(got, []float64{3, 2, 1}) || p.NextCursor != nil {
		t.Errorf("huge limit after cursor: got %v, next=%v", got, p.NextCursor)
	}

	p = Paginate(data, model.Window("30d"), model.SortBy("liquidity"), 10, "")
	if len(p.Items) != 4 || p.Items[0].Volume24h != 4 {
		t.Errorf("unrecognized window/sort should fall back to 24h/volume, got %v", volumes(p.Items))
	}
}

func TestPaginateDoesNotMutateInput(t *testing.T) {
	data := volumeSeries(5)
	Paginate(data, model.Window24h, model.SortVolume, 5, "")
	for i, r := range data {
		if r.Volume24h != float64(i) {
			t.Fatalf("input reordered: %v", volumes(data))
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 42, 1000} {
		if got := DecodeCursor(EncodeCursor(n)); got != n {
			t.Errorf("DecodeCursor(EncodeCursor(%d)) = %d", n, got)
		}
	}
	if got := DecodeCursor(EncodeCursor(-3)); got != 0 {
		t.Errorf("negative offset decoded to %d, want 0", got)
	}
}

package model

import (
	"errors"
	"strings"
)

var (
	ErrInvalidWindow = errors.New("invalid window")
	ErrInvalidSort   = errors.New("invalid sort field")
)

// TokenRecord is the canonical snapshot of one token at fetch time.
// JSON names are the wire names clients already consume.
type TokenRecord struct {
	Address   string  `json:"token_address"`
	Name      string  `json:"token_name"`
	Ticker    string  `json:"token_ticker"`
	PriceUSD  float64 `json:"price_usd"`
	Volume1h  float64 `json:"volume_1h"`
	Volume24h float64 `json:"volume_24h"`
	Volume7d  float64 `json:"volume_7d"`
	MarketCap float64 `json:"market_cap"`
}

// Volume returns the volume field selected by w.
func (t TokenRecord) Volume(w Window) float64 {
	switch w {
	case Window1h:
		return t.Volume1h
	case Window7d:
		return t.Volume7d
	default:
		return t.Volume24h
	}
}

// Window is the activity horizon that gates inclusion and spike comparison.
type Window string

const (
	Window1h  Window = "1h"
	Window24h Window = "24h"
	Window7d  Window = "7d"
)

func (w Window) Valid() bool {
	switch w {
	case Window1h, Window24h, Window7d:
		return true
	}
	return false
}

func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	if !w.Valid() {
		return Window24h, ErrInvalidWindow
	}
	return w, nil
}

// SortBy names the metric a page is ordered by (descending).
type SortBy string

const (
	SortVolume    SortBy = "volume"
	SortPrice     SortBy = "price"
	SortMarketCap SortBy = "marketCap"
)

func (s SortBy) Valid() bool {
	switch s {
	case SortVolume, SortPrice, SortMarketCap:
		return true
	}
	return false
}

func ParseSortBy(s string) (SortBy, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "volume":
		return SortVolume, nil
	case "price":
		return SortPrice, nil
	case "marketcap", "market_cap":
		return SortMarketCap, nil
	}
	return SortVolume, ErrInvalidSort
}

// Value resolves the sort key of t; volume follows the window.
func (s SortBy) Value(t TokenRecord, w Window) float64 {
	switch s {
	case SortPrice:
		return t.PriceUSD
	case SortMarketCap:
		return t.MarketCap
	default:
		return t.Volume(w)
	}
}

// Page is one slice of a filtered and sorted record sequence.
// NextCursor is nil when no items remain.
type Page struct {
	Items      []TokenRecord `json:"data"`
	NextCursor *string       `json:"nextCursor"`
}

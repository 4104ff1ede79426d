package source

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"tokenagg/internal/domain/model"
)

// Shape identifies which top-level layout an upstream body used.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeData               // {"data": [...]}
	ShapePairs              // {"pairs": [...]}
)

func (s Shape) String() string {
	switch s {
	case ShapeData:
		return "data"
	case ShapePairs:
		return "pairs"
	default:
		return "unrecognized"
	}
}

// Payload is one decoded upstream body.
type Payload struct {
	Shape    Shape
	Listings []Listing
}

// Listing is a raw pair entry. Only the fields the canonical record needs
// are decoded.
type Listing struct {
	BaseToken *BaseToken `json:"baseToken"`
	PriceUSD  Number     `json:"priceUsd"`
	Volume    *Volume    `json:"volume"`
	MarketCap Number     `json:"marketCap"`
	FDV       Number     `json:"fdv"`
}

type BaseToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Volume struct {
	H1   Number `json:"h1"`
	H24  Number `json:"h24"`
	H168 Number `json:"h168"`
}

// Number accepts a JSON number or a numeric string. Anything else,
// including negatives and non-finite values, decodes as 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == 'n' || b[0] == 't' || b[0] == 'f' || b[0] == '{' || b[0] == '[' {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	*n = Number(v)
	return nil
}

// Address returns the identity key, or "" when the listing has none.
func (l Listing) Address() string {
	if l.BaseToken == nil {
		return ""
	}
	return strings.TrimSpace(l.BaseToken.Address)
}

// Record normalizes the listing. ok is false when it has no identity.
func (l Listing) Record() (model.TokenRecord, bool) {
	addr := l.Address()
	if addr == "" {
		return model.TokenRecord{}, false
	}

	rec := model.TokenRecord{
		Address:   addr,
		Name:      l.BaseToken.Name,
		Ticker:    l.BaseToken.Symbol,
		PriceUSD:  float64(l.PriceUSD),
		MarketCap: float64(l.MarketCap),
	}
	if rec.MarketCap == 0 {
		rec.MarketCap = float64(l.FDV)
	}
	if l.Volume != nil {
		rec.Volume1h = float64(l.Volume.H1)
		rec.Volume24h = float64(l.Volume.H24)
		rec.Volume7d = float64(l.Volume.H168)
	}
	return rec, true
}

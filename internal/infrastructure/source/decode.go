package source

import (
	"encoding/json"

	"tokenagg/internal/application/port"
	"tokenagg/internal/domain/model"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Pairs json.RawMessage `json:"pairs"`
}

// Parse decodes body into one of the known shapes. A "data" array wins over
// a "pairs" array. Elements that fail to decode are skipped individually.
func Parse(body []byte) Payload {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Payload{Shape: ShapeUnrecognized}
	}
	if items, ok := rawArray(env.Data); ok {
		return Payload{Shape: ShapeData, Listings: decodeListings(items)}
	}
	if items, ok := rawArray(env.Pairs); ok {
		return Payload{Shape: ShapePairs, Listings: decodeListings(items)}
	}
	return Payload{Shape: ShapeUnrecognized}
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func decodeListings(items []json.RawMessage) []Listing {
	out := make([]Listing, 0, len(items))
	for _, it := range items {
		var l Listing
		if err := json.Unmarshal(it, &l); err != nil {
			continue
		}
		out = append(out, l)
	}
	return out
}

// JSONDecoder adapts Parse to port.Decoder.
type JSONDecoder struct{}

func (JSONDecoder) Decode(body []byte) []model.TokenRecord {
	p := Parse(body)
	out := make([]model.TokenRecord, 0, len(p.Listings))
	for _, l := range p.Listings {
		if rec, ok := l.Record(); ok {
			out = append(out, rec)
		}
	}
	return out
}

var _ port.Decoder = JSONDecoder{}

package service

import (
	"math"

	"tokenagg/internal/domain/model"
)

// SpikeThresholds configures spike detection between two snapshots.
type SpikeThresholds struct {
	PriceChange  float64 // relative, 0.005 = 0.5%
	VolumeFactor float64 // new/old ratio
}

func DefaultSpikeThresholds() SpikeThresholds {
	return SpikeThresholds{PriceChange: 0.005, VolumeFactor: 2}
}

// PriceChange is |new-old|/old. ok is false when old is not positive.
func PriceChange(oldPrice, newPrice float64) (change float64, ok bool) {
	if oldPrice <= 0 {
		return 0, false
	}
	return math.Abs(newPrice-oldPrice) / oldPrice, true
}

// DetectSpikes compares next against prev (both already window-filtered) and
// returns spike events in the order of next. For each token the price spike,
// if any, precedes the volume spike. Tokens missing from prev have no baseline
// and never spike.
func DetectSpikes(prev, next []model.TokenRecord, w model.Window, th SpikeThresholds) []model.Event {
	if len(prev) == 0 || len(next) == 0 {
		return nil
	}

	baseline := make(map[string]model.TokenRecord, len(prev))
	for _, p := range prev {
		baseline[p.Address] = p
	}

	var events []model.Event
	for _, cur := range next {
		old, ok := baseline[cur.Address]
		if !ok {
			continue
		}

		if change, ok := PriceChange(old.PriceUSD, cur.PriceUSD); ok && change >= th.PriceChange {
			events = append(events, model.Event{
				Name: model.EventPriceSpike,
				Payload: model.PriceSpike{
					Address:  cur.Address,
					OldPrice: old.PriceUSD,
					NewPrice: cur.PriceUSD,
					Change:   change,
				},
			})
		}

		oldVol, newVol := old.Volume(w), cur.Volume(w)
		if oldVol > 0 {
			if factor := newVol / oldVol; factor >= th.VolumeFactor {
				events = append(events, model.Event{
					Name: model.EventVolumeSpike,
					Payload: model.VolumeSpike{
						Address:   cur.Address,
						OldVolume: oldVol,
						NewVolume: newVol,
						Factor:    factor,
					},
				})
			}
		}
	}
	return events
}

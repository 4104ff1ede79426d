package service

import "tokenagg/internal/domain/model"

// FilterByWindow keeps records whose volume in w is strictly positive.
// Input order is preserved.
func FilterByWindow(records []model.TokenRecord, w model.Window) []model.TokenRecord {
	out := make([]model.TokenRecord, 0, len(records))
	for _, r := range records {
		if r.Volume(w) > 0 {
			out = append(out, r)
		}
	}
	return out
}

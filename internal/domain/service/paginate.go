package service

import (
	"cmp"
	"encoding/base64"
	"slices"
	"strconv"

	"tokenagg/internal/domain/model"
)

// Paginate filters records by window, sorts them descending by sortBy and
// returns the page starting at the offset encoded in cursor.
//
// An empty or malformed cursor starts at offset 0. limit below 1 is clamped
// to 1. The input slice is not modified.
func Paginate(records []model.TokenRecord, w model.Window, sortBy model.SortBy, limit int, cursor string) model.Page {
	if !w.Valid() {
		w = model.Window24h
	}
	if !sortBy.Valid() {
		sortBy = model.SortVolume
	}
	if limit < 1 {
		limit = 1
	}

	filtered := FilterByWindow(records, w)
	slices.SortStableFunc(filtered, func(a, b model.TokenRecord) int {
		return cmp.Compare(sortBy.Value(b, w), sortBy.Value(a, w))
	})

	start := DecodeCursor(cursor)
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + min(limit, len(filtered)-start)

	page := model.Page{Items: filtered[start:end]}
	if end < len(filtered) {
		next := EncodeCursor(end)
		page.NextCursor = &next
	}
	return page
}

// EncodeCursor renders a start offset as an opaque cursor.
func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor returns the offset in cursor, or 0 if it is empty or malformed.
func DecodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

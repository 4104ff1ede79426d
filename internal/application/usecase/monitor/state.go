package monitor

import (
	"slices"
	"sync"

	"tokenagg/internal/domain/model"
	dsvc "tokenagg/internal/domain/service"
)

// State is the snapshot held by one subscription between poll cycles.
type State struct {
	mu sync.Mutex

	window model.Window
	th     dsvc.SpikeThresholds
	snap   []model.TokenRecord
}

func NewState(w model.Window, th dsvc.SpikeThresholds) *State {
	return &State{window: w, th: th}
}

func (s *State) Window() model.Window { return s.window }

// Reset drops the held snapshot so the next Apply has no baseline.
func (s *State) Reset() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

// Apply filters records to the window, diffs them against the held snapshot
// and replaces it wholesale. Spike events come back in record order.
func (s *State) Apply(records []model.TokenRecord) (filtered []model.TokenRecord, spikes []model.Event) {
	filtered = dsvc.FilterByWindow(records, s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	spikes = dsvc.DetectSpikes(s.snap, filtered, s.window, s.th)
	s.snap = filtered
	return filtered, spikes
}

func (s *State) Snapshot() []model.TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snap)
}

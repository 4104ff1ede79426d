package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"tokenagg/internal/application/port"
	"tokenagg/internal/domain/model"

	"github.com/rs/zerolog/log"
)

type ServiceDeps struct {
	Aggregator port.TokenAggregator
	Config     Config
	Metrics    port.Metrics
	Now        func() time.Time
}

type subscription struct {
	ch     port.Channel
	query  string
	state  *State
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the polling loop and waits for it to exit. Once stop returns
// the subscription emits nothing further.
func (sub *subscription) stop() {
	sub.cancel()
	<-sub.done
}

// Service runs one polling loop per subscribed channel.
type Service struct {
	deps ServiceDeps

	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool
}

func NewService(deps ServiceDeps) *Service {
	def := DefaultConfig()
	if deps.Config.Interval <= 0 {
		deps.Config.Interval = def.Interval
	}
	if deps.Config.Thresholds.PriceChange <= 0 {
		deps.Config.Thresholds.PriceChange = def.Thresholds.PriceChange
	}
	if deps.Config.Thresholds.VolumeFactor <= 0 {
		deps.Config.Thresholds.VolumeFactor = def.Thresholds.VolumeFactor
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps, subs: make(map[string]*subscription)}
}

// Subscribe replaces any existing subscription for ch, polls once right away
// and then keeps polling every Config.Interval until the subscription is
// replaced, removed, or ctx is done.
func (s *Service) Subscribe(ctx context.Context, ch port.Channel, query string, window model.Window) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}
	if !window.Valid() {
		window = model.Window24h
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		ch:     ch,
		query:  query,
		state:  NewState(window, s.deps.Config.Thresholds),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrClosed
	}
	old := s.subs[ch.ID()]
	s.subs[ch.ID()] = sub
	n := len(s.subs)
	s.mu.Unlock()

	if old != nil {
		old.stop()
	}
	s.deps.Metrics.Subscribers(n)

	log.Info().
		Str("conn", ch.ID()).
		Str("query", query).
		Str("window", string(window)).
		Bool("replaced", old != nil).
		Msg("subscribed")

	go s.run(subCtx, sub)
	return nil
}

// Unsubscribe stops the polling loop for id. It reports whether one existed.
func (s *Service) Unsubscribe(id string) bool {
	s.mu.Lock()
	sub := s.subs[id]
	delete(s.subs, id)
	n := len(s.subs)
	s.mu.Unlock()

	if sub == nil {
		return false
	}
	sub.stop()
	s.deps.Metrics.Subscribers(n)
	log.Info().Str("conn", id).Str("query", sub.query).Msg("unsubscribed")
	return true
}

// Disconnect is called when the connection behind id is gone.
func (s *Service) Disconnect(id string) {
	if s.Unsubscribe(id) {
		log.Debug().Str("conn", id).Msg("subscriber disconnected")
	}
}

// Lookup returns the active subscription for id, if any.
func (s *Service) Lookup(id string) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.subs[id]
	if sub == nil {
		return Info{}, false
	}
	return Info{ID: id, Query: sub.query, Window: string(sub.state.Window())}, true
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close stops every polling loop. Later Subscribe calls fail with ErrClosed.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	subs := s.subs
	s.subs = make(map[string]*subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	s.deps.Metrics.Subscribers(0)
	return nil
}

func (s *Service) run(ctx context.Context, sub *subscription) {
	defer close(sub.done)

	if ctx.Err() != nil {
		return
	}
	s.poll(ctx, sub)

	ticker := time.NewTicker(s.deps.Config.Interval)
	defer ticker.Stop()

	// a single goroutine drives every cycle, so cycles never overlap
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx, sub)
		}
	}
}

func (s *Service) poll(ctx context.Context, sub *subscription) {
	start := time.Now()
	window := sub.state.Window()

	records, err := s.deps.Aggregator.Aggregate(ctx, sub.query)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.deps.Metrics.PollCycle(err, time.Since(start))
		log.Warn().Err(err).Str("conn", sub.ch.ID()).Str("query", sub.query).Msg("poll cycle failed")
		s.emit(ctx, sub, model.EventPriceError, model.PriceError{
			Query:   sub.query,
			Window:  window,
			Message: fetchFailedMessage,
		})
		return
	}

	filtered, spikes := sub.state.Apply(records)
	for _, ev := range spikes {
		if s.emit(ctx, sub, ev.Name, ev.Payload) {
			s.deps.Metrics.SpikeEmitted(ev.Name)
		}
	}

	s.emit(ctx, sub, model.EventPriceUpdate, model.PriceUpdate{
		Query:     sub.query,
		Window:    window,
		Timestamp: s.deps.Now().UnixMilli(),
		Data:      filtered,
	})
	s.deps.Metrics.PollCycle(nil, time.Since(start))
}

// emit drops events once the subscription is cancelled.
func (s *Service) emit(ctx context.Context, sub *subscription, event string, payload any) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := sub.ch.Emit(event, payload); err != nil {
		log.Debug().Err(err).Str("conn", sub.ch.ID()).Str("event", event).Msg("emit failed")
		return false
	}
	return true
}

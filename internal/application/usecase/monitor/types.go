package monitor

import (
	"errors"
	"time"

	dsvc "tokenagg/internal/domain/service"
)

const DefaultInterval = 30 * time.Second

// fetchFailedMessage is what subscribers see when a poll cycle fails.
const fetchFailedMessage = "Fetch failed"

var (
	ErrEmptyQuery = errors.New("monitor: query is empty")
	ErrClosed     = errors.New("monitor: closed")
)

type Config struct {
	Interval   time.Duration
	Thresholds dsvc.SpikeThresholds
}

func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Thresholds: dsvc.DefaultSpikeThresholds()}
}

// Info describes an active subscription.
type Info struct {
	ID     string
	Query  string
	Window string
}

package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"tokenagg/internal/application/port"
	"tokenagg/internal/application/usecase/monitor"
	"tokenagg/internal/domain/model"
)

// Sink prints monitor events to a terminal. It implements port.Channel.
type Sink struct {
	id  string
	out io.Writer
	fmt *monitor.Formatter

	mu sync.Mutex
}

func NewSink(top int) *Sink {
	return NewSinkTo(os.Stdout, top)
}

func NewSinkTo(w io.Writer, top int) *Sink {
	return &Sink{id: "console", out: w, fmt: monitor.NewFormatter(top)}
}

func (s *Sink) ID() string { return s.id }

func (s *Sink) Emit(event string, payload any) error {
	var line string
	switch p := payload.(type) {
	case model.PriceUpdate:
		line = s.fmt.RenderUpdate(p)
	case model.PriceSpike:
		line = s.fmt.RenderPriceSpike(p)
	case model.VolumeSpike:
		line = s.fmt.RenderVolumeSpike(p)
	case model.PriceError:
		line = s.fmt.RenderError(p)
	default:
		line = fmt.Sprintf("%s %v", event, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, line)
	return err
}

var _ port.Channel = (*Sink)(nil)

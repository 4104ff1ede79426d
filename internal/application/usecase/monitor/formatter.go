package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"tokenagg/internal/domain/model"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiMagenta  = "\033[35m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Dir int

const (
	DirSame Dir = 0
	DirUp   Dir = +1
	DirDown Dir = -1
)

func (d Dir) color() string {
	switch d {
	case DirUp:
		return ansiGreen
	case DirDown:
		return ansiRed
	default:
		return ansiYellow
	}
}

// Formatter renders monitor events as terminal lines. It remembers the last
// price per token to colour moves.
type Formatter struct {
	Top int

	mu   sync.Mutex
	last map[string]float64
}

func NewFormatter(top int) *Formatter {
	if top <= 0 {
		top = 5
	}
	return &Formatter{Top: top, last: make(map[string]float64)}
}

// Direction records price for address and returns its move since last seen.
func (f *Formatter) Direction(address string, price float64) Dir {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.last[address]
	f.last[address] = price
	switch {
	case !ok || price == prev:
		return DirSame
	case price > prev:
		return DirUp
	default:
		return DirDown
	}
}

func (f *Formatter) RenderUpdate(u model.PriceUpdate) string {
	var sb strings.Builder
	ts := time.UnixMilli(u.Timestamp).Format("15:04:05")
	sb.WriteString(colorize(fmt.Sprintf("[TOKENAGG] %s %s %s n=%d", ts, u.Query, u.Window, len(u.Data)), ansiDim))

	for i, r := range u.Data {
		if i >= f.Top {
			break
		}
		label := r.Ticker
		if label == "" {
			label = shortAddress(r.Address)
		}
		dir := f.Direction(r.Address, r.PriceUSD)
		sb.WriteString(colorize("  ||  ", ansiDim))
		sb.WriteString(label)
		sb.WriteString(" ")
		sb.WriteString(colorize("$"+formatPrice(r.PriceUSD), dir.color()))
		sb.WriteString(" ")
		sb.WriteString(colorize("V:"+compact(r.Volume(u.Window)), ansiDim))
	}
	sb.WriteString(ansiClearEOL)
	return sb.String()
}

func (f *Formatter) RenderPriceSpike(p model.PriceSpike) string {
	dir := DirUp
	if p.NewPrice < p.OldPrice {
		dir = DirDown
	}
	return colorize("[SPIKE] ", ansiMagenta) + shortAddress(p.Address) + " price " +
		formatPrice(p.OldPrice) + " -> " + colorize(formatPrice(p.NewPrice), dir.color()) +
		fmt.Sprintf(" (%.2f%%)", p.Change*100)
}

func (f *Formatter) RenderVolumeSpike(v model.VolumeSpike) string {
	return colorize("[SPIKE] ", ansiMagenta) + shortAddress(v.Address) + " volume " +
		compact(v.OldVolume) + " -> " + colorize(compact(v.NewVolume), ansiGreen) +
		fmt.Sprintf(" (x%.2f)", v.Factor)
}

func (f *Formatter) RenderError(e model.PriceError) string {
	return colorize(fmt.Sprintf("[ERROR] %s %s: %s", e.Query, e.Window, e.Message), ansiRed)
}

func shortAddress(a string) string {
	if len(a) <= 10 {
		return a
	}
	return a[:4] + ".." + a[len(a)-4:]
}

func formatPrice(p float64) string {
	switch {
	case p == 0:
		return "0"
	case p >= 1:
		return strconv.FormatFloat(p, 'f', 2, 64)
	default:
		return strconv.FormatFloat(p, 'g', 4, 64)
	}
}

func compact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}

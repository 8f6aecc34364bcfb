// Package smoothing reduces frame-to-frame jitter in joint angle signals.
package smoothing

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// MovingAverage is a fixed-window simple moving average. It is not safe for
// concurrent use; each tracked signal owns its own instance.
type MovingAverage struct {
	window int
	buf    []float64
}

// New creates a moving average over the last window samples.
func New(window int) (*MovingAverage, error) {
	if window < 1 {
		return nil, fmt.Errorf("smoothing window must be at least 1, got %d", window)
	}
	return &MovingAverage{
		window: window,
		buf:    make([]float64, 0, window),
	}, nil
}

// Update appends v, evicting the oldest sample once the window is full, and
// returns the mean of the buffered samples. Before the window fills the mean
// covers only what has been seen so far.
func (m *MovingAverage) Update(v float64) float64 {
	if len(m.buf) == m.window {
		copy(m.buf, m.buf[1:])
		m.buf = m.buf[:m.window-1]
	}
	m.buf = append(m.buf, v)
	return stat.Mean(m.buf, nil)
}

// Len returns the number of buffered samples.
func (m *MovingAverage) Len() int {
	return len(m.buf)
}

// Window returns the configured window size.
func (m *MovingAverage) Window() int {
	return m.window
}

// Reset drops all buffered samples.
func (m *MovingAverage) Reset() {
	m.buf = m.buf[:0]
}

package vbi

import (
	"errors"
	"math"
)

const (
	referenceRate   = 14_000_000 // samples per second of the reference grid
	samplesPerBit   = 18         // reference samples per data bit
	startOffsetSecs = 10.86e-6   // leading edge of the first bit relative to the line start
	riseTimeSecs    = 375e-9     // 0-100% time of a bit edge
)

var ErrInvalidGeometry = errors.New("vbi: invalid line geometry")

// Renderer draws VBI bits into a line of samples as a two-level waveform.
// Bit edges follow a raised cosine centred on the bit boundary.
type Renderer struct {
	start float64
	step  float64
	// half of the rise time, in samples
	edge  float64
	black int16
	white int16
}

// NewRenderer creates a renderer for lines sampled at pixelRate samples per second
// having the provided number of samples. Bits are drawn between the black and the white level.
func NewRenderer(pixelRate float64, width int, black, white int16) (*Renderer, error) {
	if pixelRate <= 0 || width <= 0 || white <= black {
		return nil, ErrInvalidGeometry
	}
	r := &Renderer{
		start: pixelRate * startOffsetSecs,
		step:  pixelRate / referenceRate * samplesPerBit,
		edge:  pixelRate * riseTimeSecs / 2,
		black: black,
		white: white,
	}
	if int(math.Ceil(r.start+r.step*BitsPerLine+r.edge)) > width {
		return nil, ErrInvalidGeometry
	}
	return r, nil
}

// Render draws the bits of data least significant bit first.
// Samples outside of the data window and its edges are left untouched.
func (r *Renderer) Render(data []byte, samples []int16) {
	bits := len(data) * 8
	if bits == 0 {
		return
	}
	from := max(int(math.Floor(r.start-r.edge)), 0)
	to := min(int(math.Ceil(r.start+r.step*float64(bits)+r.edge)), len(samples)-1)
	amplitude := float64(r.white) - float64(r.black)

	for x := from; x <= to; x++ {
		t := float64(x) - r.start
		first := max(int(math.Floor((t-r.step-r.edge)/r.step)), 0)
		last := min(int(math.Floor((t+r.edge)/r.step)), bits-1)
		level := 0.0
		for bit := first; bit <= last; bit++ {
			if data[bit/8]>>(bit%8)&1 == 1 {
				offset := t - r.step*float64(bit)
				level += r.rise(offset) - r.rise(offset-r.step)
			}
		}
		samples[x] = r.black + int16(math.Round(amplitude*level))
	}
}

// rise is the share of the white level t samples after the centre of a rising edge
func (r *Renderer) rise(t float64) float64 {
	switch {
	case t <= -r.edge:
		return 0
	case t >= r.edge:
		return 1
	}
	return 0.5 + 0.5*math.Sin(math.Pi/2*t/r.edge)
}

package prbs

import (
	"errors"
	"math"
)

const (
	ReferenceRate  = 14e6 // samples per second of the reference grid
	ReferenceWidth = 896  // reference samples per line

	left    = 120
	span    = 710
	right   = left + span
	overlap = 15
)

// Active video lines, one range per field
const (
	Field1Start   = 23
	Field2Start   = 335
	LinesPerField = 287

	// WSSLine carries wide-screen signalling and is never scrambled
	WSSLine = 23
	// Line 336 is scrambled into this one, so it must not be reused for other data
	SpillLine = 335
)

var ErrInvalidGeometry = errors.New("invalid line geometry")

// IsActive tells whether a line belongs to one of the active ranges.
// The generator is clocked for every active line, including the WSS line.
func IsActive(line int) bool {
	return (line >= Field1Start && line < Field1Start+LinesPerField) ||
		(line >= Field2Start && line < Field2Start+LinesPerField)
}

// Geometry maps positions on the reference grid onto sample positions
// of the actual line, measured from the centre of the hsync pulse
type Geometry struct {
	scale [ReferenceWidth]int
	width int
}

func NewGeometry(width int, hsyncWidth float64) (*Geometry, error) {
	f := float64(width) / ReferenceWidth
	l := ReferenceRate * hsyncWidth / 2
	g := &Geometry{width: width}
	for x := range ReferenceWidth {
		g.scale[x] = int(math.Round((l + float64(x)) * f))
	}
	if width <= 0 || g.scale[right+overlap] > width {
		return nil, ErrInvalidGeometry
	}
	return g, nil
}

func (g *Geometry) Width() int {
	return g.width
}

// Scramble performs the cut-and-rotate of a line.
// The part of the line right of the cut is moved to the front, followed by the part left of it.
// All samples are taken from the delayed copy of the line.
func (g *Geometry) Scramble(out, delayed []int16, v int) {
	cut := CutPoint(v)
	lshift := span - cut

	x := g.scale[left]
	for y := g.scale[left+lshift]; x < g.scale[left+cut]; x, y = x+1, y+1 {
		out[x] = delayed[y]
	}
	for y := g.scale[left]; x < g.scale[right+overlap]; x, y = x+1, y+1 {
		out[x] = delayed[y]
	}
}

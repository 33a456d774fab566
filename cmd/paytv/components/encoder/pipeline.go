package encoder

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/sergeii/paytv/internal/encoder"
)

const (
	LinesPerFrame = 625
	sampleSize    = 2
	// mid grey, used when there is no input
	greyLevel = 0x2000
)

// Pipeline feeds frames of raw little-endian 16-bit samples through a session
type Pipeline struct {
	session *encoder.Session
	width   int
	src     io.Reader
	dst     *bufio.Writer

	raw     []byte
	in      []int16
	out     []int16
	delayed []int16
}

// NewPipeline creates a pipeline reading from src and writing to dst.
// Without src every frame is flat grey.
func NewPipeline(session *encoder.Session, width int, src io.Reader, dst io.Writer) *Pipeline {
	p := &Pipeline{
		session: session,
		width:   width,
		src:     src,
		dst:     bufio.NewWriter(dst),
		raw:     make([]byte, width*sampleSize),
		in:      make([]int16, width),
		out:     make([]int16, width),
		delayed: make([]int16, width),
	}
	return p
}

// RenderFrame passes the lines of the next frame through the session.
// io.EOF is returned when the input ends on a frame boundary.
func (p *Pipeline) RenderFrame() error {
	for n := 1; n <= LinesPerFrame; n++ {
		if err := p.readLine(); err != nil {
			if n > 1 && err == io.EOF { // nolint: errorlint
				return io.ErrUnexpectedEOF
			}
			return err
		}
		copy(p.out, p.in)
		line := &encoder.Line{Number: n, Samples: p.out}
		if err := p.session.Render(line, &encoder.Line{Number: n - 1, Samples: p.delayed}); err != nil {
			return err
		}
		if err := p.writeLine(); err != nil {
			return err
		}
		p.in, p.delayed = p.delayed, p.in
	}
	return nil
}

func (p *Pipeline) Flush() error {
	return p.dst.Flush()
}

func (p *Pipeline) readLine() error {
	if p.src == nil {
		for i := range p.in {
			p.in[i] = greyLevel
		}
		return nil
	}
	if _, err := io.ReadFull(p.src, p.raw); err != nil {
		return err
	}
	for i := range p.in {
		p.in[i] = int16(binary.LittleEndian.Uint16(p.raw[i*sampleSize:]))
	}
	return nil
}

func (p *Pipeline) writeLine() error {
	for i, v := range p.out {
		binary.LittleEndian.PutUint16(p.raw[i*sampleSize:], uint16(v))
	}
	_, err := p.dst.Write(p.raw)
	return err
}

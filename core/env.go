package core

import "io"

// Action is one of the two paddle moves. The policy network emits the
// probability of ActionUp; everything downstream treats actions as opaque.
type Action int

const (
	ActionUp Action = iota
	ActionDown
)

func (a Action) String() string {
	if a == ActionUp {
		return "up"
	}
	return "down"
}

// Frame is a raw RGB observation as emitted by the environment.
// Pixels is row-major, 3 bytes per pixel.
type Frame struct {
	Height int
	Width  int
	Pixels []byte
}

func NewFrame(height, width int) *Frame {
	return &Frame{
		Height: height,
		Width:  width,
		Pixels: make([]byte, height*width*3),
	}
}

// At returns the value of the given channel at (row, col).
func (f *Frame) At(row, col, channel int) byte {
	return f.Pixels[(row*f.Width+col)*3+channel]
}

func (f *Frame) Set(row, col int, r, g, b byte) {
	i := (row*f.Width + col) * 3
	f.Pixels[i] = r
	f.Pixels[i+1] = g
	f.Pixels[i+2] = b
}

type Environment interface {
	Reset() (*Frame, error)
	Step(Action) (*Frame, float64, bool, error)
}

// Renderer is implemented by environments that can paint themselves to a
// terminal. Consulted only when rendering is requested, never by the
// training loop itself.
type Renderer interface {
	Render(io.Writer)
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given seed.
	NewEnvironment(int64) Environment
}

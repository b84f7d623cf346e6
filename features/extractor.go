package features

import (
	"fmt"

	"github.com/omar-florez/reinforcement-learning/core"
)

// Playing-field geometry of the 210×160 frame: rows [35,195) hold the
// court, everything above is the scoreboard. Downsampling by 2 gives an
// 80×80 grid. The two known background pixel values map to 0, every other
// pixel (paddles, ball) maps to 1.
const (
	FrameHeight = 210
	FrameWidth  = 160

	cropTop    = 35
	cropBottom = 195
	factor     = 2

	BackgroundValue = 144
	CourtValue      = 109
)

// Extractor turns raw frames into binary difference vectors. The previous
// frame persists across steps within an episode so static scenes yield a
// zero vector and motion shows up as ±1 edges.
type Extractor struct {
	rows int
	cols int

	prev []float64
}

var _ core.FeatureExtractor = &Extractor{}

func NewExtractor() *Extractor {
	return &Extractor{
		rows: (cropBottom - cropTop) / factor,
		cols: FrameWidth / factor,
	}
}

func (e *Extractor) Size() int {
	return e.rows * e.cols
}

// Reset clears the previous-frame state. Called at every episode start.
func (e *Extractor) Reset() {
	e.prev = nil
}

// Extract crops, downsamples, binarizes and differences the frame against
// the previous one. The first frame of an episode is returned raw (zeros
// as the implicit previous frame).
func (e *Extractor) Extract(frame *core.Frame) []float64 {
	if frame.Height != FrameHeight || frame.Width != FrameWidth {
		panic(fmt.Sprintf("features: frame is %dx%d, want %dx%d",
			frame.Height, frame.Width, FrameHeight, FrameWidth))
	}

	cur := e.preprocess(frame)
	out := make([]float64, len(cur))
	if e.prev == nil {
		copy(out, cur)
	} else {
		for i := range cur {
			out[i] = cur[i] - e.prev[i]
		}
	}
	e.prev = cur
	return out
}

func (e *Extractor) preprocess(frame *core.Frame) []float64 {
	out := make([]float64, e.rows*e.cols)
	for r := 0; r < e.rows; r++ {
		srcRow := cropTop + r*factor
		for c := 0; c < e.cols; c++ {
			v := frame.At(srcRow, c*factor, 0)
			if v != BackgroundValue && v != CourtValue {
				out[r*e.cols+c] = 1
			}
		}
	}
	return out
}

package pong

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/omar-florez/reinforcement-learning/core"
)

// Court geometry in full-resolution frame coordinates. The playing field
// occupies rows [courtTop, courtBottom); the rows above hold the score.
// All moving objects sit on even coordinates so the 2× downsampled feature
// grid always sees them.
const (
	frameHeight = 210
	frameWidth  = 160

	courtTop    = 35
	courtBottom = 195

	paddleHeight = 16
	paddleWidth  = 4
	agentCol     = 140
	opponentCol  = 16

	ballSize = 4

	agentSpeed    = 4
	opponentSpeed = 2
)

// Frame pixel values. The extractor keys on the red channel: background and
// scoreboard values are erased, everything else becomes a 1.
var (
	backgroundColor = [3]byte{144, 72, 17}
	scoreboardColor = [3]byte{109, 118, 43}
	opponentColor   = [3]byte{213, 130, 74}
	agentColor      = [3]byte{92, 186, 92}
	ballColor       = [3]byte{236, 236, 236}
)

type Config struct {
	// PointsPerGame ends the episode once either side reaches it.
	PointsPerGame int
	Seed          int64
}

func DefaultConfig() Config {
	return Config{PointsPerGame: 21}
}

// Env is a two-paddle ball game with the reward structure the trainer
// expects: zero reward on every step except the single ±1 at each point
// boundary, terminal when either side wins the match.
type Env struct {
	cfg Config
	rng *rand.Rand

	ballRow, ballCol   int
	ballVRow, ballVCol int
	agentRow           int
	opponentRow        int

	agentScore    int
	opponentScore int
}

var _ core.Environment = &Env{}
var _ core.Renderer = &Env{}

func New(cfg Config) *Env {
	if cfg.PointsPerGame <= 0 {
		cfg.PointsPerGame = 21
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Env{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (e *Env) Reset() (*core.Frame, error) {
	e.agentScore = 0
	e.opponentScore = 0
	centerRow := (courtTop + courtBottom - paddleHeight) / 2
	e.agentRow = centerRow
	e.opponentRow = centerRow
	e.serve(1)
	return e.render(), nil
}

func (e *Env) Step(action core.Action) (*core.Frame, float64, bool, error) {
	if action == core.ActionUp {
		e.agentRow -= agentSpeed
	} else {
		e.agentRow += agentSpeed
	}
	e.agentRow = clamp(e.agentRow, courtTop, courtBottom-paddleHeight)

	e.moveOpponent()
	reward := e.moveBall()

	done := e.agentScore >= e.cfg.PointsPerGame || e.opponentScore >= e.cfg.PointsPerGame
	return e.render(), reward, done, nil
}

// Scores returns (agent, opponent), for rendering and tests.
func (e *Env) Scores() (int, int) {
	return e.agentScore, e.opponentScore
}

func (e *Env) moveOpponent() {
	target := e.ballRow + ballSize/2 - paddleHeight/2
	diff := target - e.opponentRow
	if diff > opponentSpeed {
		diff = opponentSpeed
	} else if diff < -opponentSpeed {
		diff = -opponentSpeed
	}
	e.opponentRow = clamp(e.opponentRow+diff, courtTop, courtBottom-paddleHeight)
}

// moveBall advances the ball one tick and returns the point reward, if any.
func (e *Env) moveBall() float64 {
	e.ballRow += e.ballVRow
	e.ballCol += e.ballVCol

	if e.ballRow <= courtTop {
		e.ballRow = courtTop
		e.ballVRow = -e.ballVRow
	}
	if e.ballRow >= courtBottom-ballSize {
		e.ballRow = courtBottom - ballSize
		e.ballVRow = -e.ballVRow
	}

	if e.ballVCol > 0 && e.ballCol+ballSize >= agentCol && e.ballCol < agentCol+paddleWidth {
		if e.ballRow+ballSize >= e.agentRow && e.ballRow <= e.agentRow+paddleHeight {
			e.bounceOff(e.agentRow)
			e.ballCol = agentCol - ballSize
		}
	}
	if e.ballVCol < 0 && e.ballCol <= opponentCol+paddleWidth && e.ballCol+ballSize > opponentCol {
		if e.ballRow+ballSize >= e.opponentRow && e.ballRow <= e.opponentRow+paddleHeight {
			e.bounceOff(e.opponentRow)
			e.ballCol = opponentCol + paddleWidth
		}
	}

	if e.ballCol < 0 {
		e.agentScore++
		e.serve(-1)
		return 1
	}
	if e.ballCol >= frameWidth {
		e.opponentScore++
		e.serve(1)
		return -1
	}
	return 0
}

// bounceOff reflects the ball horizontally and skews the vertical speed by
// where it hit the paddle.
func (e *Env) bounceOff(paddleRow int) {
	e.ballVCol = -e.ballVCol
	contact := (e.ballRow + ballSize/2) - (paddleRow + paddleHeight/2)
	e.ballVRow = clamp(contact/2, -3, 3)
	if e.ballVRow == 0 {
		// keep a slight drift so the ball never travels flat
		e.ballVRow = 1
		if e.rng.Intn(2) == 0 {
			e.ballVRow = -1
		}
	}
}

// serve places the ball at mid-court heading toward the side that just
// conceded.
func (e *Env) serve(direction int) {
	e.ballCol = frameWidth / 2
	e.ballRow = courtTop + 2*(e.rng.Intn((courtBottom-courtTop-ballSize)/2))
	e.ballVCol = 4 * direction
	e.ballVRow = 1 + e.rng.Intn(3)
	if e.rng.Intn(2) == 0 {
		e.ballVRow = -e.ballVRow
	}
}

func (e *Env) render() *core.Frame {
	frame := core.NewFrame(frameHeight, frameWidth)
	for row := 0; row < frameHeight; row++ {
		color := backgroundColor
		if row < courtTop || row >= courtBottom {
			color = scoreboardColor
		}
		for col := 0; col < frameWidth; col++ {
			frame.Set(row, col, color[0], color[1], color[2])
		}
	}
	e.paintRect(frame, e.opponentRow, opponentCol, paddleHeight, paddleWidth, opponentColor)
	e.paintRect(frame, e.agentRow, agentCol, paddleHeight, paddleWidth, agentColor)
	e.paintRect(frame, e.ballRow, e.ballCol, ballSize, ballSize, ballColor)
	return frame
}

func (e *Env) paintRect(frame *core.Frame, row, col, height, width int, color [3]byte) {
	for r := row; r < row+height; r++ {
		if r < 0 || r >= frameHeight {
			continue
		}
		for c := col; c < col+width; c++ {
			if c < 0 || c >= frameWidth {
				continue
			}
			frame.Set(r, c, color[0], color[1], color[2])
		}
	}
}

// Render paints an ASCII view of the court, one character per 4×4 block.
func (e *Env) Render(w io.Writer) {
	const cell = 4
	rows := (courtBottom - courtTop) / cell
	cols := frameWidth / cell

	var b strings.Builder
	fmt.Fprintf(&b, "opponent %d : %d agent\n", e.opponentScore, e.agentScore)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.WriteByte(e.cellChar(courtTop+r*cell, c*cell, cell))
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(w, b.String())
}

func (e *Env) cellChar(row, col, cell int) byte {
	if overlaps(row, col, cell, e.ballRow, e.ballCol, ballSize, ballSize) {
		return 'o'
	}
	if overlaps(row, col, cell, e.agentRow, agentCol, paddleHeight, paddleWidth) {
		return '|'
	}
	if overlaps(row, col, cell, e.opponentRow, opponentCol, paddleHeight, paddleWidth) {
		return '|'
	}
	return ' '
}

func overlaps(row, col, cell, r, c, h, w int) bool {
	return r < row+cell && r+h > row && c < col+cell && c+w > col
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Constructor builds seeded environments for a training run.
type Constructor struct {
	Config Config
}

var _ core.EnvironmentConstructor = &Constructor{}

func (c *Constructor) NewEnvironment(seed int64) core.Environment {
	cfg := c.Config
	cfg.Seed = seed
	return New(cfg)
}

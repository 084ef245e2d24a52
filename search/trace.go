package search

import (
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/yomi/move"
)

// iterationTrace is one YAML document of the per-iteration log stream.
type iterationTrace struct {
	Depth      int      `yaml:"depth"`
	Alpha      int32    `yaml:"alpha"`
	Beta       int32    `yaml:"beta"`
	Score      int32    `yaml:"score"`
	Move       string   `yaml:"move"`
	PV         []string `yaml:"pv"`
	Nodes      uint64   `yaml:"nodes"`
	FailLows   int      `yaml:"fail-lows"`
	FailHighs  int      `yaml:"fail-highs"`
	ElapsedSec float64  `yaml:"elapsed-sec"`
}

func (e *Engine) trace(enc *yaml.Encoder, depth int, asp *AspirationWindowState, score int32,
	best move.Move, nodes uint64, elapsed time.Duration) {

	err := enc.Encode(iterationTrace{
		Depth:      depth,
		Alpha:      asp.Alpha,
		Beta:       asp.Beta,
		Score:      score,
		Move:       best.String(),
		PV:         e.pvLines[0].strings(),
		Nodes:      nodes,
		FailLows:   asp.FailLows,
		FailHighs:  asp.FailHighs,
		ElapsedSec: elapsed.Seconds(),
	})
	if err != nil {
		log.Err(err).Msg("trace-write-failed")
	}
}

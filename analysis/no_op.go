package analysis

import "github.com/omar-florez/reinforcement-learning/core"

type NoOpAnalyzer struct {
}

var _ core.Analyzer = &NoOpAnalyzer{}

func NewNoOpAnalyzer() *NoOpAnalyzer {
	return &NoOpAnalyzer{}
}

func (n *NoOpAnalyzer) Analyze(_ *core.EpisodeResult) {
}

func (n *NoOpAnalyzer) DataSet() core.DataSet {
	return nil
}

func (n *NoOpAnalyzer) Reset() {
}

package search

import (
	"github.com/poiesic/bookfinder/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks are called from the goroutine running Search, never concurrently.
type SearchMonitor interface {
	Start(query string, filters *core.FilterSpec)
	AfterLexicalSearch(candidates core.CandidateSet, err error)
	AfterSemanticSearch(candidates core.CandidateSet, err error)
	AfterFusion(fused core.FusedSet)
	AfterFilterStage(report StageReport)
	AfterRerank(results []core.RankedResult)
	Finish(results []core.RankedResult, cached bool)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ *core.FilterSpec)               {}
func (n *noopMonitor) AfterLexicalSearch(_ core.CandidateSet, _ error)  {}
func (n *noopMonitor) AfterSemanticSearch(_ core.CandidateSet, _ error) {}
func (n *noopMonitor) AfterFusion(_ core.FusedSet)                      {}
func (n *noopMonitor) AfterFilterStage(_ StageReport)                   {}
func (n *noopMonitor) AfterRerank(_ []core.RankedResult)                {}
func (n *noopMonitor) Finish(_ []core.RankedResult, _ bool)             {}

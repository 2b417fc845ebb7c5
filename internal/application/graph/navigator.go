// Package graph implements the pure Graph Navigator over a campaign's
// workflow JSON: entry-node resolution, outgoing-edge classification, and
// the successor planner that turns a completed step into its follow-on
// PENDING steps.
package graph

import (
	"github.com/campaignflow/engine/internal/application/clock"
	"github.com/campaignflow/engine/internal/domain"
)

// Index is a pre-computed adjacency view over a campaign's workflow graph,
// built once per executeStep/admission call.
type Index struct {
	nodesByID    map[string]domain.Node
	order        []string // retained node ids in original document order
	outgoing     map[string][]domain.Edge
	incomingCount map[string]int
}

// BuildIndex filters out addStep placeholder nodes (and any edge touching
// one) and returns the adjacency index over what remains.
func BuildIndex(wf *domain.Workflow) *Index {
	idx := &Index{
		nodesByID:     make(map[string]domain.Node),
		outgoing:      make(map[string][]domain.Edge),
		incomingCount: make(map[string]int),
	}

	for _, n := range wf.Nodes {
		if n.Type == domain.NodeKindAddStep {
			continue
		}
		idx.nodesByID[n.ID] = n
		idx.order = append(idx.order, n.ID)
		idx.incomingCount[n.ID] = 0
	}

	for _, e := range wf.Edges {
		_, sourceOK := idx.nodesByID[e.Source]
		_, targetOK := idx.nodesByID[e.Target]
		if !sourceOK || !targetOK {
			continue
		}
		idx.outgoing[e.Source] = append(idx.outgoing[e.Source], e)
		idx.incomingCount[e.Target]++
	}

	return idx
}

// EntryNode returns the node every admitted lead starts at: the first
// retained node (in document order) with zero incoming edges, or the first
// retained node if none qualifies.
func (idx *Index) EntryNode() (domain.Node, bool) {
	if len(idx.order) == 0 {
		return domain.Node{}, false
	}
	for _, id := range idx.order {
		if idx.incomingCount[id] == 0 {
			return idx.nodesByID[id], true
		}
	}
	return idx.nodesByID[idx.order[0]], true
}

// Successor describes one outgoing edge resolved against the node it
// targets, with its delay and conditional classification.
type Successor struct {
	Edge          domain.Edge
	TargetNode    domain.Node
	DelayMillis   int64
	IsConditional bool
	Conditional   domain.ConditionalOutcome // valid only when IsConditional
}

// Outgoing resolves every edge leaving nodeID to a retained target, in
// document order.
func (idx *Index) Outgoing(nodeID string) []Successor {
	edges := idx.outgoing[nodeID]
	successors := make([]Successor, 0, len(edges))
	for _, e := range edges {
		target, ok := idx.nodesByID[e.Target]
		if !ok {
			continue
		}
		s := Successor{
			Edge:       e,
			TargetNode: target,
		}
		if e.Data.DelayData != nil {
			amount := parseAmount(e.Data.DelayData.Delay)
			s.DelayMillis = clock.DelayMillis(amount, clock.Unit(e.Data.DelayData.Unit))
		}
		if e.Data.IsConditionalPath {
			s.IsConditional = true
			if e.Data.IsPositive {
				s.Conditional = domain.OutcomeAccepted
			} else {
				s.Conditional = domain.OutcomeNotAccepted
			}
		}
		successors = append(successors, s)
	}
	return successors
}

// MatchConditional returns the first outgoing successor whose conditional
// outcome matches, or false if none does.
func (idx *Index) MatchConditional(nodeID string, outcome domain.ConditionalOutcome) (Successor, bool) {
	for _, s := range idx.Outgoing(nodeID) {
		if s.IsConditional && s.Conditional == outcome {
			return s, true
		}
	}
	return Successor{}, false
}

// Node looks up a retained node by id.
func (idx *Index) Node(id string) (domain.Node, bool) {
	n, ok := idx.nodesByID[id]
	return n, ok
}

// parseAmount parses the edge delayData's string-int amount, returning 0 on
// malformed input per the navigator's "0 if absent, malformed" rule.
func parseAmount(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

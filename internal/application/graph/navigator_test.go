package graph

import (
	"testing"

	"github.com/campaignflow/engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleConnectionWorkflow() *domain.Workflow {
	return &domain.Workflow{
		Nodes: []domain.Node{
			{ID: "visit", Type: domain.NodeKindAction, Data: domain.NodeData{Type: domain.StepProfileVisit}},
			{ID: "connect", Type: domain.NodeKindAction, Data: domain.NodeData{Type: domain.StepSendConnectionRequest}},
			{ID: "followup", Type: domain.NodeKindAction, Data: domain.NodeData{Type: domain.StepSendFollowup}},
			{ID: "withdraw", Type: domain.NodeKindAction, Data: domain.NodeData{Type: domain.StepWithdrawRequest}},
			{ID: "builder-note", Type: domain.NodeKindAddStep, Data: domain.NodeData{}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "visit", Target: "connect"},
			{ID: "e2", Source: "connect", Target: "followup", Data: domain.EdgeData{
				IsConditionalPath: true, IsPositive: true,
			}},
			{ID: "e3", Source: "connect", Target: "withdraw", Data: domain.EdgeData{
				IsConditionalPath: true, IsPositive: false,
			}},
			{ID: "e4", Source: "builder-note", Target: "followup"},
		},
	}
}

func TestBuildIndex_FiltersAddStepNodesAndTheirEdges(t *testing.T) {
	idx := BuildIndex(simpleConnectionWorkflow())

	_, ok := idx.Node("builder-note")
	assert.False(t, ok, "addStep node must be filtered out")

	_, ok = idx.Node("visit")
	assert.True(t, ok)

	// e4 touches the filtered builder-note node, so it must not inflate
	// followup's incoming count.
	out := idx.Outgoing("builder-note")
	assert.Empty(t, out)
	assert.Equal(t, 1, idx.incomingCount["followup"])
}

func TestIndex_EntryNode(t *testing.T) {
	t.Run("zero-incoming node wins", func(t *testing.T) {
		idx := BuildIndex(simpleConnectionWorkflow())
		entry, ok := idx.EntryNode()
		require.True(t, ok)
		assert.Equal(t, "visit", entry.ID)
	})

	t.Run("empty workflow has no entry", func(t *testing.T) {
		idx := BuildIndex(&domain.Workflow{})
		_, ok := idx.EntryNode()
		assert.False(t, ok)
	})

	t.Run("falls back to first node when every node has incoming edges", func(t *testing.T) {
		wf := &domain.Workflow{
			Nodes: []domain.Node{
				{ID: "a", Type: domain.NodeKindAction},
				{ID: "b", Type: domain.NodeKindAction},
			},
			Edges: []domain.Edge{
				{ID: "e1", Source: "a", Target: "b"},
				{ID: "e2", Source: "b", Target: "a"},
			},
		}
		idx := BuildIndex(wf)
		entry, ok := idx.EntryNode()
		require.True(t, ok)
		assert.Equal(t, "a", entry.ID)
	})
}

func TestIndex_Outgoing(t *testing.T) {
	idx := BuildIndex(simpleConnectionWorkflow())

	out := idx.Outgoing("connect")
	require.Len(t, out, 2)
	assert.True(t, out[0].IsConditional)
	assert.Equal(t, domain.OutcomeAccepted, out[0].Conditional)
	assert.Equal(t, domain.OutcomeNotAccepted, out[1].Conditional)
}

func TestIndex_Outgoing_DelayParsing(t *testing.T) {
	wf := &domain.Workflow{
		Nodes: []domain.Node{
			{ID: "a", Type: domain.NodeKindAction},
			{ID: "b", Type: domain.NodeKindAction},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "b", Data: domain.EdgeData{
				DelayData: &domain.DelayData{Delay: "2", Unit: domain.UnitDays},
			}},
		},
	}
	idx := BuildIndex(wf)
	out := idx.Outgoing("a")
	require.Len(t, out, 1)
	assert.Equal(t, int64(2*24*60*60*1000), out[0].DelayMillis)
}

func TestIndex_Outgoing_MalformedDelayYieldsZero(t *testing.T) {
	wf := &domain.Workflow{
		Nodes: []domain.Node{
			{ID: "a", Type: domain.NodeKindAction},
			{ID: "b", Type: domain.NodeKindAction},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "b", Data: domain.EdgeData{
				DelayData: &domain.DelayData{Delay: "not-a-number", Unit: domain.UnitDays},
			}},
		},
	}
	idx := BuildIndex(wf)
	out := idx.Outgoing("a")
	require.Len(t, out, 1)
	assert.Zero(t, out[0].DelayMillis)
}

func TestIndex_MatchConditional(t *testing.T) {
	idx := BuildIndex(simpleConnectionWorkflow())

	t.Run("matches accepted", func(t *testing.T) {
		s, ok := idx.MatchConditional("connect", domain.OutcomeAccepted)
		require.True(t, ok)
		assert.Equal(t, "followup", s.TargetNode.ID)
	})

	t.Run("matches not_accepted", func(t *testing.T) {
		s, ok := idx.MatchConditional("connect", domain.OutcomeNotAccepted)
		require.True(t, ok)
		assert.Equal(t, "withdraw", s.TargetNode.ID)
	})

	t.Run("no match on a node with no conditional edges", func(t *testing.T) {
		_, ok := idx.MatchConditional("visit", domain.OutcomeAccepted)
		assert.False(t, ok)
	})
}

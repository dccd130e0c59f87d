package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addOp(g *Graph, label string, inputs, outputs []*Node) *Node {
	body := OperationBody{Kernel: label, Inputs: SelectionMap{}, Outputs: SelectionMap{}}
	for _, in := range inputs {
		body.Inputs["tensors"] = append(body.Inputs["tensors"],
			TensorSelection{TensorID: in.ID, Range: in.TensorBody().Range})
	}
	for _, out := range outputs {
		body.Outputs["result"] = append(body.Outputs["result"],
			TensorSelection{TensorID: out.ID, Range: out.TensorBody().Range})
	}
	return g.AddOperation(label, body)
}

func TestLinkGraphAcyclicPipeline(t *testing.T) {
	g := NewGraph()
	a := g.AddTensor("a", TensorBody{DType: "f32", Range: testRange(0, 2)})
	b := g.AddTensor("b", TensorBody{DType: "f32", Range: testRange(0, 2)})
	c := g.AddTensor("c", TensorBody{DType: "f32", Range: testRange(0, 2)})
	addOp(g, "f", []*Node{a}, []*Node{b})
	addOp(g, "g", []*Node{b}, []*Node{c})

	assert.Empty(t, BuildLinkGraph(g).SimpleCycles())
}

func TestLinkGraphSelfCycle(t *testing.T) {
	g := NewGraph()
	tensor := g.AddTensor("t", TensorBody{DType: "f32", Range: testRange(0, 2)})
	op := addOp(g, "inc", []*Node{tensor}, []*Node{tensor})

	cycles := BuildLinkGraph(g).SimpleCycles()
	require.Len(t, cycles, 1)
	require.Len(t, cycles[0], 2)
	assert.ElementsMatch(t, []uuid.UUID{tensor.ID, op.ID}, cycles[0])
}

func TestLinkGraphLongCycle(t *testing.T) {
	// f: a -> b, g: b -> a is a four-vertex cycle a -> f -> b -> g -> a.
	g := NewGraph()
	a := g.AddTensor("a", TensorBody{DType: "f32", Range: testRange(0, 2)})
	b := g.AddTensor("b", TensorBody{DType: "f32", Range: testRange(0, 2)})
	f := addOp(g, "f", []*Node{a}, []*Node{b})
	gg := addOp(g, "g", []*Node{b}, []*Node{a})

	cycles := BuildLinkGraph(g).SimpleCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, f.ID, b.ID, gg.ID}, cycles[0])
}

func TestLinkGraphMultipleCycles(t *testing.T) {
	// One operation reads and writes both tensors: each tensor closes its
	// own two-vertex loop through the op. An elementary cycle cannot visit
	// the op twice, so there are exactly two.
	g := NewGraph()
	a := g.AddTensor("a", TensorBody{DType: "f32", Range: testRange(0, 2)})
	b := g.AddTensor("b", TensorBody{DType: "f32", Range: testRange(0, 2)})
	addOp(g, "swap", []*Node{a, b}, []*Node{a, b})

	cycles := BuildLinkGraph(g).SimpleCycles()
	assert.Len(t, cycles, 2)
	for _, cycle := range cycles {
		assert.Greater(t, len(cycle), 1)
	}
}

func TestLinkGraphDeterministicEnumeration(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		a := g.AddTensor("a", TensorBody{DType: "f32", Range: testRange(0, 2)})
		b := g.AddTensor("b", TensorBody{DType: "f32", Range: testRange(0, 2)})
		addOp(g, "f", []*Node{a}, []*Node{b})
		addOp(g, "g", []*Node{b}, []*Node{a})
		return g
	}

	g := build()
	first := BuildLinkGraph(g).SimpleCycles()
	second := BuildLinkGraph(g).SimpleCycles()
	assert.Equal(t, first, second)
}

func TestLinkGraphDedupesRepeatedSelections(t *testing.T) {
	// Two selections of the same tensor contribute one edge.
	g := NewGraph()
	a := g.AddTensor("a", TensorBody{DType: "f32", Range: testRange(0, 4)})
	b := g.AddTensor("b", TensorBody{DType: "f32", Range: testRange(0, 4)})
	g.AddOperation("concat", OperationBody{
		Kernel: "concat",
		Inputs: SelectionMap{"tensors": {
			{TensorID: a.ID, Range: testRange(0, 2)},
			{TensorID: a.ID, Range: testRange(2, 4)},
		}},
		Outputs: SelectionMap{"result": {{TensorID: b.ID, Range: testRange(0, 4)}}},
	})

	lg := BuildLinkGraph(g)
	adj := lg.adjacency()
	total := 0
	for _, edges := range adj {
		total += len(edges)
	}
	assert.Equal(t, 2, total)
	assert.Empty(t, lg.SimpleCycles())
}

package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlab/weft/internal/graph"
	"github.com/weftlab/weft/internal/validate"
	"github.com/weftlab/weft/internal/zspace"
)

func identityProjection(shape int64) zspace.ProjectionMap {
	return zspace.MustProjectionMap(
		zspace.MustAffineMap([][]int64{{1}}, []int64{0}),
		zspace.NewPoint(shape),
	)
}

// indexedFixture is a 1-D elementwise operation tiled over an index range,
// with identity projections of unit shape on both slots.
type indexedFixture struct {
	g  *graph.Graph
	x  *graph.Node
	y  *graph.Node
	op *graph.Node
}

func newIndexedFixture(n int64) *indexedFixture {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr(0, n)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, n)})
	indexRange := zr(0, n)
	op := g.AddOperation("relu", graph.OperationBody{
		Kernel:            "relu",
		Inputs:            graph.SelectionMap{"tensors": {sel(x, zr(0, n))}},
		Outputs:           graph.SelectionMap{"result": {sel(y, zr(0, n))}},
		IndexRange:        &indexRange,
		InputProjections:  graph.ProjectionSet{"tensors": {identityProjection(1)}},
		OutputProjections: graph.ProjectionSet{"result": {identityProjection(1)}},
	})
	return &indexedFixture{g: g, x: x, y: y, op: op}
}

func (f *indexedFixture) addShard(indexRange zspace.Range) *graph.Node {
	return f.g.AddApplication(graph.ApplicationBody{
		OperationID: f.op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(f.x, indexRange)}},
		Outputs:     graph.SelectionMap{"result": {sel(f.y, indexRange)}},
		IndexRange:  &indexRange,
	})
}

func TestProjectionAgreementCleanTiling(t *testing.T) {
	f := newIndexedFixture(8)
	f.addShard(zr(0, 4))
	f.addShard(zr(4, 8))

	assert.Empty(t, DefaultEnvironment().Validate(f.g))
}

func TestProjectionAgreementSelectionMismatch(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr(0, 8)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, 8)})
	indexRange := zr(0, 8)
	op := g.AddOperation("relu", graph.OperationBody{
		Kernel: "relu",
		// Declared input selection disagrees with the projected index
		// range [0,8).
		Inputs:            graph.SelectionMap{"tensors": {sel(x, zr(0, 4))}},
		Outputs:           graph.SelectionMap{"result": {sel(y, zr(0, 8))}},
		IndexRange:        &indexRange,
		InputProjections:  graph.ProjectionSet{"tensors": {identityProjection(1)}},
		OutputProjections: graph.ProjectionSet{"result": {identityProjection(1)}},
	})
	shardRange := zr(0, 8)
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(x, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(y, zr(0, 8))}},
		IndexRange:  &shardRange,
	})

	issues := DefaultEnvironment().Validate(g)

	var projIssues []validate.Issue
	for _, issue := range issues {
		for _, ctx := range issue.Contexts {
			if ctx.Name == "Projection" {
				projIssues = append(projIssues, issue)
				break
			}
		}
	}
	require.NotEmpty(t, projIssues)
	assert.Contains(t, projIssues[0].Summary, "projected index range")
	assert.Equal(t, "tensors", projIssues[0].Params["slot"])
}

func TestProjectionAgreementShardMissingIndexRange(t *testing.T) {
	f := newIndexedFixture(4)
	f.g.AddApplication(graph.ApplicationBody{
		OperationID: f.op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(f.x, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(f.y, zr(0, 4))}},
	})

	issues := DefaultEnvironment().Validate(f.g)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "missing an index range")
}

func TestProjectionAgreementShardIndexRangeOutside(t *testing.T) {
	f := newIndexedFixture(4)
	outside := zr(2, 6)
	f.g.AddApplication(graph.ApplicationBody{
		OperationID: f.op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(f.x, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(f.y, zr(0, 4))}},
		IndexRange:  &outside,
	})

	issues := DefaultEnvironment().Validate(f.g)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "outside the operation index range")
}

func TestProjectionAgreementArityMismatch(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr(0, 4)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, 4)})
	indexRange := zr(0, 4)
	op := g.AddOperation("relu", graph.OperationBody{
		Kernel:  "relu",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr(0, 4))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
		// Two projections for a single-selection slot.
		IndexRange:        &indexRange,
		InputProjections:  graph.ProjectionSet{"tensors": {identityProjection(1), identityProjection(1)}},
		OutputProjections: graph.ProjectionSet{"result": {identityProjection(1)}},
	})
	shardRange := zr(0, 4)
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(x, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
		IndexRange:  &shardRange,
	})

	issues := DefaultEnvironment().Validate(g)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Summary, "projection count")
}

func TestProjectionAgreementUnindexedOperationSkipped(t *testing.T) {
	f := newFixture(4)
	f.addShard(zr(0, 4), zr(0, 4))

	assert.Empty(t, DefaultEnvironment().Validate(f.g))
}

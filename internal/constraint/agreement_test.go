package constraint

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlab/weft/internal/graph"
	"github.com/weftlab/weft/internal/validate"
	"github.com/weftlab/weft/internal/zspace"
)

func zr(start, end int64) zspace.Range {
	return zspace.MustRange(zspace.NewPoint(start), zspace.NewPoint(end))
}

func zr2(s0, s1, e0, e1 int64) zspace.Range {
	return zspace.MustRange(zspace.NewPoint(s0, s1), zspace.NewPoint(e0, e1))
}

func sel(t *graph.Node, r zspace.Range) graph.TensorSelection {
	return graph.TensorSelection{TensorID: t.ID, Range: r}
}

func issuesOfKind(issues []validate.Issue, kind string) []validate.Issue {
	var out []validate.Issue
	for _, issue := range issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// fixture is a single sum(x) -> y operation over 1-D tensors of length n,
// sharded by the ranges handed to addShards.
type fixture struct {
	env *graph.Environment
	g   *graph.Graph
	x   *graph.Node
	y   *graph.Node
	op  *graph.Node
}

func newFixture(n int64) *fixture {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr(0, n)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, n)})
	op := g.AddOperation("sum", graph.OperationBody{
		Kernel:  "sum",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr(0, n))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr(0, n))}},
	})
	return &fixture{env: DefaultEnvironment(), g: g, x: x, y: y, op: op}
}

func (f *fixture) addShard(input, output zspace.Range) *graph.Node {
	return f.g.AddApplication(graph.ApplicationBody{
		OperationID: f.op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(f.x, input)}},
		Outputs:     graph.SelectionMap{"result": {sel(f.y, output)}},
	})
}

func TestOperationAgreementExactPartition(t *testing.T) {
	f := newFixture(10)
	f.addShard(zr(0, 5), zr(0, 5))
	f.addShard(zr(5, 10), zr(5, 10))

	issues := f.env.Validate(f.g)
	assert.Empty(t, issues)
}

func TestOperationAgreementSingleFullShard(t *testing.T) {
	f := newFixture(10)
	f.addShard(zr(0, 10), zr(0, 10))

	issues := f.env.Validate(f.g)
	assert.Empty(t, issues)
}

func TestOperationAgreementInputCoverageGap(t *testing.T) {
	f := newFixture(10)
	f.addShard(zr(0, 5), zr(0, 5))
	f.addShard(zr(5, 9), zr(5, 10))

	issues := f.env.Validate(f.g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.KindNodeValidation, issues[0].Kind)
	assert.Contains(t, issues[0].Summary, `input "tensors"`)
	assert.Contains(t, issues[0].Summary, "zr[0:9]")
}

func TestOperationAgreementOverlappingOutputShards(t *testing.T) {
	f := newFixture(10)
	f.addShard(zr(0, 10), zr(0, 10))
	f.addShard(zr(0, 10), zr(0, 10))

	// Identical output shards form exactly one overlapping pair.
	issues := f.env.Validate(f.g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.KindNodeValidation, issues[0].Kind)
	assert.Equal(t, "Overlapping Application output ranges", issues[0].Summary)
	assert.Equal(t, "result", issues[0].Params["slot"])
	require.Len(t, issues[0].Contexts, 1)
	assert.Equal(t, "Overlapping Ranges", issues[0].Contexts[0].Name)

	pair, ok := issues[0].Contexts[0].Data.([]zspace.Range)
	require.True(t, ok)
	require.Len(t, pair, 2)
	assert.True(t, pair[0].Equal(zr(0, 10)))
	assert.True(t, pair[1].Equal(zr(0, 10)))
}

func TestOperationAgreementOverlapCompensatedByGap(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr2(0, 0, 2, 2)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr2(0, 0, 2, 2)})
	op := g.AddOperation("relu", graph.OperationBody{
		Kernel:  "relu",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr2(0, 0, 2, 2))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr2(0, 0, 2, 2))}},
	})
	// The output shards double-cover cell (0,1) and miss cell (1,0): the
	// bounding range and the size sum both match the signature exactly, so
	// only the pairwise check can catch the layout.
	for _, r := range []zspace.Range{zr2(0, 0, 1, 2), zr2(0, 1, 2, 2)} {
		g.AddApplication(graph.ApplicationBody{
			OperationID: op.ID,
			Inputs:      graph.SelectionMap{"tensors": {sel(x, zr2(0, 0, 2, 2))}},
			Outputs:     graph.SelectionMap{"result": {sel(y, r)}},
		})
	}

	issues := DefaultEnvironment().Validate(g)
	require.Len(t, issues, 1)
	assert.Equal(t, "Overlapping Application output ranges", issues[0].Summary)

	pair, ok := issues[0].Contexts[0].Data.([]zspace.Range)
	require.True(t, ok)
	require.Len(t, pair, 2)
	assert.True(t, pair[0].Overlaps(pair[1]))
}

func TestOperationAgreementInteriorOutputGap(t *testing.T) {
	f := newFixture(10)
	f.addShard(zr(0, 4), zr(0, 4))
	f.addShard(zr(4, 10), zr(5, 10))

	// Bounding on the outputs still matches [0,10), so only the size-sum
	// check can see the missing cell at index 4.
	issues := f.env.Validate(f.g)
	require.Len(t, issues, 1)
	assert.Equal(t, "Application output ranges do not cover the operation range", issues[0].Summary)
	assert.Equal(t, "9", issues[0].Params["shardSizeSum"])
}

func TestOperationAgreementNoShards(t *testing.T) {
	f := newFixture(10)

	issues := f.env.Validate(f.g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.KindNodeValidation, issues[0].Kind)
	assert.Contains(t, issues[0].Summary, "has no Application shards")
}

func TestOperationAgreementReferenceCycle(t *testing.T) {
	g := graph.NewGraph()
	tensor := g.AddTensor("t", graph.TensorBody{DType: "int32", Range: zr(0, 4)})
	op := g.AddOperation("inc", graph.OperationBody{
		Kernel:  "inc",
		Inputs:  graph.SelectionMap{"tensors": {sel(tensor, zr(0, 4))}},
		Outputs: graph.SelectionMap{"result": {sel(tensor, zr(0, 4))}},
	})
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(tensor, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(tensor, zr(0, 4))}},
	})

	issues := DefaultEnvironment().Validate(g)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.KindReferenceCycle, issues[0].Kind)
	require.Len(t, issues[0].Contexts, 1)

	members, ok := issues[0].Contexts[0].Data.([]map[string]string)
	require.True(t, ok)
	require.Len(t, members, 2)
}

func TestOperationAgreementCycleGatedOnCleanChecks(t *testing.T) {
	g := graph.NewGraph()
	tensor := g.AddTensor("t", graph.TensorBody{DType: "int32", Range: zr(0, 4)})
	g.AddOperation("inc", graph.OperationBody{
		Kernel:  "inc",
		Inputs:  graph.SelectionMap{"tensors": {sel(tensor, zr(0, 4))}},
		Outputs: graph.SelectionMap{"result": {sel(tensor, zr(0, 4))}},
	})

	// The operation both participates in a cycle and has no shards; with
	// an earlier check dirty, the cycle must not be reported.
	issues := DefaultEnvironment().Validate(g)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "has no Application shards")
	assert.Empty(t, issuesOfKind(issues, validate.KindReferenceCycle))
}

func TestOperationAgreementDanglingTensorReference(t *testing.T) {
	g := graph.NewGraph()
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, 4)})
	missing := uuid.New()
	op := g.AddOperation("copy", graph.OperationBody{
		Kernel:  "copy",
		Inputs:  graph.SelectionMap{"tensors": {{TensorID: missing, Range: zr(0, 4)}}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
	})
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {{TensorID: missing, Range: zr(0, 4)}}},
		Outputs:     graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
	})

	issues := DefaultEnvironment().Validate(g)
	refs := issuesOfKind(issues, validate.KindNodeReference)
	require.NotEmpty(t, refs)
	assert.Contains(t, refs[0].Summary, "does not exist")
	assert.Equal(t, missing.String(), refs[0].Params["nodeId"])
	assert.Empty(t, issuesOfKind(issues, validate.KindReferenceCycle))
}

func TestOperationAgreementWrongKindReference(t *testing.T) {
	g := graph.NewGraph()
	note := g.AddNote("not an operation")
	g.AddApplication(graph.ApplicationBody{OperationID: note.ID})

	issues := DefaultEnvironment().Validate(g)
	refs := issuesOfKind(issues, validate.KindNodeReference)
	require.Len(t, refs, 1)
	assert.Equal(t, graph.KindOperation, refs[0].Params["expectedKind"])
	assert.Equal(t, graph.KindNote, refs[0].Params["actualKind"])
}

func TestOperationAgreementShardKeyMismatch(t *testing.T) {
	f := newFixture(4)
	f.g.AddApplication(graph.ApplicationBody{
		OperationID: f.op.ID,
		Inputs:      graph.SelectionMap{"wrong": {sel(f.x, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(f.y, zr(0, 4))}},
	})

	issues := f.env.Validate(f.g)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "keys")
}

func TestOperationAgreementShardArityMismatch(t *testing.T) {
	f := newFixture(4)
	f.g.AddApplication(graph.ApplicationBody{
		OperationID: f.op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(f.x, zr(0, 2)), sel(f.x, zr(2, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(f.y, zr(0, 4))}},
	})

	issues := f.env.Validate(f.g)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "selection count")
}

func TestOperationAgreementShardOutsideSignatureRange(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr(0, 10)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, 10)})
	op := g.AddOperation("sum", graph.OperationBody{
		Kernel:  "sum",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr(0, 5))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr(0, 5))}},
	})
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(x, zr(0, 8))}},
		Outputs:     graph.SelectionMap{"result": {sel(y, zr(0, 5))}},
	})

	issues := DefaultEnvironment().Validate(g)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Summary, "outside the operation range")
}

func TestOperationAgreementSelectionRankMismatch(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr2(0, 0, 4, 4)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, 4)})
	op := g.AddOperation("flatten", graph.OperationBody{
		Kernel:  "flatten",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr(0, 4))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
	})
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(x, zr(0, 4))}},
		Outputs:     graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
	})

	issues := DefaultEnvironment().Validate(g)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Summary, "wrong number of dimensions")
	assert.Equal(t, "2", issues[0].Params["expectedDimensions"])
	assert.Equal(t, "1", issues[0].Params["actualDimensions"])
}

func TestOperationAgreementSelectionOutOfBounds(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr(0, 4)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr(0, 4)})
	op := g.AddOperation("copy", graph.OperationBody{
		Kernel:  "copy",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr(0, 6))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
	})
	g.AddApplication(graph.ApplicationBody{
		OperationID: op.ID,
		Inputs:      graph.SelectionMap{"tensors": {sel(x, zr(0, 6))}},
		Outputs:     graph.SelectionMap{"result": {sel(y, zr(0, 4))}},
	})

	issues := DefaultEnvironment().Validate(g)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Summary, "out of bounds")
}

func TestOperationAgreementTwoDimensionalTiling(t *testing.T) {
	g := graph.NewGraph()
	x := g.AddTensor("x", graph.TensorBody{DType: "float32", Range: zr2(0, 0, 4, 6)})
	y := g.AddTensor("y", graph.TensorBody{DType: "float32", Range: zr2(0, 0, 4, 6)})
	op := g.AddOperation("relu", graph.OperationBody{
		Kernel:  "relu",
		Inputs:  graph.SelectionMap{"tensors": {sel(x, zr2(0, 0, 4, 6))}},
		Outputs: graph.SelectionMap{"result": {sel(y, zr2(0, 0, 4, 6))}},
	})
	quads := []zspace.Range{
		zr2(0, 0, 2, 3), zr2(0, 3, 2, 6),
		zr2(2, 0, 4, 3), zr2(2, 3, 4, 6),
	}
	for _, q := range quads {
		g.AddApplication(graph.ApplicationBody{
			OperationID: op.ID,
			Inputs:      graph.SelectionMap{"tensors": {sel(x, q)}},
			Outputs:     graph.SelectionMap{"result": {sel(y, q)}},
		})
	}

	assert.Empty(t, DefaultEnvironment().Validate(g))
}

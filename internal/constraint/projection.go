package constraint

import (
	"fmt"

	"github.com/weftlab/weft/internal/graph"
	"github.com/weftlab/weft/internal/validate"
	"github.com/weftlab/weft/internal/zspace"
)

// ProjectionAgreement checks operations that declare an index space: the
// per-slot projection functions applied to the operation's index range
// must reproduce the declared selections, and each shard's projections
// applied to its index sub-range must reproduce the shard's selections.
//
// Operations without an index range are skipped; declaring projections is
// optional per slot, and undeclared slots are not checked.
type ProjectionAgreement struct{}

// CheckRequirements panics unless the tensor-ops kinds are registered.
func (ProjectionAgreement) CheckRequirements(env *graph.Environment) {
	env.AssertKind(graph.KindOperation)
	env.AssertKind(graph.KindApplication)
}

// Validate appends every projection disagreement to the collector.
func (c ProjectionAgreement) Validate(env *graph.Environment, g *graph.Graph, collector validate.Collector) {
	for _, op := range g.NodesOfKind(graph.KindOperation) {
		body := op.OperationBody()
		if body.IndexRange == nil {
			continue
		}

		opCtx := nodeContext(g, "Operation Node", op)
		c.validateProjectedSelections(g, op, "inputs", *body.IndexRange, body.InputProjections, body.Inputs, opCtx, collector)
		c.validateProjectedSelections(g, op, "outputs", *body.IndexRange, body.OutputProjections, body.Outputs, opCtx, collector)

		for _, shard := range g.ApplicationsOf(op.ID) {
			c.validateShard(g, op, body, shard, collector)
		}
	}
}

// validateProjectedSelections checks that projecting the index range
// through each declared projection reproduces the selection at the same
// slot position. The projections always belong to the operation; the
// selections come from the operation itself or from one of its shards,
// identified by nodeCtx.
func (c ProjectionAgreement) validateProjectedSelections(
	g *graph.Graph,
	op *graph.Node,
	mapName string,
	indexRange zspace.Range,
	projections graph.ProjectionSet,
	selections graph.SelectionMap,
	nodeCtx validate.Context,
	collector validate.Collector,
) {
	for _, slot := range projections.SortedSlots() {
		slotProjections := projections[slot]
		slotSelections := selections[slot]

		if len(slotProjections) != len(slotSelections) {
			collector.Add(validate.
				Issuef(validate.KindNodeValidation, "%s projection count (%d) != selection count (%d) for slot %q",
					mapName, len(slotProjections), len(slotSelections), slot).
				WithContext(nodeCtx))
			continue
		}

		for idx, projection := range slotProjections {
			projected := projection.ApplyRange(indexRange)
			declared := slotSelections[idx].Range
			if !projected.Equal(declared) {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "%s slot %q selection %s != projected index range %s",
						mapName, slot, declared, projected).
					WithParam("slot", slot).
					WithParam("index", idx).
					WithContext(validate.Context{
						Name: "Projection",
						Path: fmt.Sprintf("%s/body/%s_projections/%s/%d", g.NodePath(op.ID), trimPlural(mapName), slot, idx),
						Data: projection,
					}, nodeCtx))
			}
		}
	}
}

// validateShard checks a shard's index sub-range and its projected
// selections against the operation's declarations.
func (c ProjectionAgreement) validateShard(
	g *graph.Graph,
	op *graph.Node,
	body graph.OperationBody,
	shard *graph.Node,
	collector validate.Collector,
) {
	shardBody := shard.ApplicationBody()
	shardCtx := nodeContext(g, "Application Node", shard)
	opCtx := nodeContext(g, "Operation Node", op)

	if shardBody.IndexRange == nil {
		collector.Add(validate.
			Issuef(validate.KindNodeValidation, "Application is missing an index range for an indexed operation").
			WithContext(shardCtx, opCtx))
		return
	}

	if !body.IndexRange.ContainsRange(*shardBody.IndexRange) {
		collector.Add(validate.
			Issuef(validate.KindNodeValidation, "Application index range %s is outside the operation index range %s",
				*shardBody.IndexRange, *body.IndexRange).
			WithContext(shardCtx, opCtx))
		return
	}

	c.validateProjectedSelections(g, op, "inputs", *shardBody.IndexRange, body.InputProjections, shardBody.Inputs, shardCtx, collector)
	c.validateProjectedSelections(g, op, "outputs", *shardBody.IndexRange, body.OutputProjections, shardBody.Outputs, shardCtx, collector)
}

// trimPlural maps the slice-map name to its projection-set field name:
// "inputs" -> "input", "outputs" -> "output".
func trimPlural(mapName string) string {
	if len(mapName) > 0 && mapName[len(mapName)-1] == 's' {
		return mapName[:len(mapName)-1]
	}
	return mapName
}

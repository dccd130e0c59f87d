package constraint

import (
	"fmt"

	"github.com/weftlab/weft/internal/graph"
	"github.com/weftlab/weft/internal/validate"
	"github.com/weftlab/weft/internal/zspace"
)

// OperationAgreement checks that every operation's declared selections,
// its Application shards, and the graph topology agree:
//
//  1. tensor references resolve, with matching rank and in-bounds ranges
//  2. every operation has at least one shard
//  3. shard slot-name sets and per-slot arities equal the signature's
//  4. each shard selection targets the signature's tensor and stays
//     inside the signature's range
//  5. per input slot position, the shard ranges bound exactly to the
//     signature range
//  6. per output slot position, the shard ranges additionally tile the
//     signature range exactly: bounding equality, no pairwise overlaps,
//     and the shard sizes sum to the signature range's size
//  7. with checks 1-6 clean, the tensor/operation graph has no reference
//     cycles
//
// Check 7 is gated on the earlier checks because dangling or malformed
// references make cycle results meaningless.
type OperationAgreement struct{}

// CheckRequirements panics unless the tensor-ops kinds are registered.
func (OperationAgreement) CheckRequirements(env *graph.Environment) {
	env.AssertKind(graph.KindTensor)
	env.AssertKind(graph.KindOperation)
	env.AssertKind(graph.KindApplication)
}

// Validate appends every agreement violation in the graph to the collector.
func (c OperationAgreement) Validate(env *graph.Environment, g *graph.Graph, collector validate.Collector) {
	valid := true

	for _, app := range g.NodesOfKind(graph.KindApplication) {
		opRef := validateNodeReference(
			g,
			app.ApplicationBody().OperationID,
			graph.KindOperation,
			g.NodePath(app.ID)+"/body/operation_id",
			collector,
			nodeContext(g, "Application Node", app),
		)
		if opRef == nil {
			valid = false
		}
	}

	for _, op := range g.NodesOfKind(graph.KindOperation) {
		if !c.validateOperation(g, op, collector) {
			valid = false
		}
	}

	if valid {
		reportCycles(g, collector)
	}
}

func (c OperationAgreement) validateOperation(g *graph.Graph, op *graph.Node, collector validate.Collector) bool {
	body := op.OperationBody()
	opCtx := nodeContext(g, "Operation Node", op)
	valid := true

	valid = c.validateSelectionMap(g, op, "inputs", body.Inputs, collector) && valid
	valid = c.validateSelectionMap(g, op, "outputs", body.Outputs, collector) && valid

	shards := g.ApplicationsOf(op.ID)
	if len(shards) == 0 {
		collector.Add(validate.
			Issuef(validate.KindNodeValidation, "Operation %s has no Application shards", opLabel(op)).
			WithContext(opCtx))
		return false
	}

	shardsValid := true
	for _, shard := range shards {
		shardBody := shard.ApplicationBody()
		shardsValid = c.validateShardAgreement(g, op, shard, "inputs", shardBody.Inputs, body.Inputs, collector) && shardsValid
		shardsValid = c.validateShardAgreement(g, op, shard, "outputs", shardBody.Outputs, body.Outputs, collector) && shardsValid
	}
	if !shardsValid {
		// Coverage arithmetic over malformed shards would only repeat the
		// agreement failures as noise.
		return false
	}

	valid = c.validateInputCoverage(op, body, shards, collector) && valid
	valid = c.validateOutputCoverage(op, body, shards, collector) && valid
	return valid
}

// validateSelectionMap performs reference-integrity checks on one slot
// map: every referenced tensor exists, and every selection range has the
// tensor's rank and lies inside the tensor's extent.
func (c OperationAgreement) validateSelectionMap(
	g *graph.Graph,
	node *graph.Node,
	mapName string,
	selections graph.SelectionMap,
	collector validate.Collector,
) bool {
	nodeCtx := nodeContext(g, "Operation Node", node)
	valid := true

	for _, slot := range selections.SortedSlots() {
		for idx, sel := range selections[slot] {
			itemPath := fmt.Sprintf("%s/body/%s/%s/%d", g.NodePath(node.ID), mapName, slot, idx)

			tensor := validateNodeReference(g, sel.TensorID, graph.KindTensor, itemPath, collector, nodeCtx)
			if tensor == nil {
				valid = false
				continue
			}

			tensorRange := tensor.TensorBody().Extent()
			selCtx := validate.Context{Name: "Selection Range", Path: itemPath, Data: sel.Range}

			if sel.Range.NDim() != tensorRange.NDim() {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Tensor selection has the wrong number of dimensions").
					WithParam("expectedDimensions", tensorRange.NDim()).
					WithParam("actualDimensions", sel.Range.NDim()).
					WithContext(selCtx, nodeContext(g, "Tensor Node", tensor), nodeCtx))
				valid = false
				continue
			}

			if !tensorRange.ContainsRange(sel.Range) {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Tensor selection is out of bounds").
					WithContext(selCtx, nodeContext(g, "Tensor Node", tensor), nodeCtx))
				valid = false
			}
		}
	}
	return valid
}

// validateShardAgreement checks one shard slot map against the signature:
// equal key sets, equal per-slot arity, same tensor per position, and the
// shard range contained in the signature range.
func (c OperationAgreement) validateShardAgreement(
	g *graph.Graph,
	op, shard *graph.Node,
	mapName string,
	shardSelections, sigSelections graph.SelectionMap,
	collector validate.Collector,
) bool {
	shardCtx := nodeContext(g, "Application Node", shard)
	opCtx := nodeContext(g, "Operation Node", op)

	shardSlots := shardSelections.SortedSlots()
	sigSlots := sigSelections.SortedSlots()
	if !equalStrings(shardSlots, sigSlots) {
		collector.Add(validate.
			Issuef(validate.KindNodeValidation, "Application %s keys %v != Operation %s keys %v",
				mapName, shardSlots, mapName, sigSlots).
			WithContext(shardCtx, opCtx))
		return false
	}

	valid := true
	for _, slot := range sigSlots {
		shardSels := shardSelections[slot]
		sigSels := sigSelections[slot]

		if len(shardSels) != len(sigSels) {
			collector.Add(validate.
				Issuef(validate.KindNodeValidation, "Application %s key %q selection count (%d) != Operation count (%d)",
					mapName, slot, len(shardSels), len(sigSels)).
				WithContext(shardCtx, opCtx))
			valid = false
			continue
		}

		for idx := range sigSels {
			shardSel := shardSels[idx]
			sigSel := sigSels[idx]

			positionCtx := []validate.Context{
				{
					Name: "Application Tensor Selection",
					Path: fmt.Sprintf("%s/body/%s/%s/%d", g.NodePath(shard.ID), mapName, slot, idx),
					Data: shardSel,
				},
				{
					Name: "Operation Tensor Selection",
					Path: fmt.Sprintf("%s/body/%s/%s/%d", g.NodePath(op.ID), mapName, slot, idx),
					Data: sigSel,
				},
			}

			if shardSel.TensorID != sigSel.TensorID {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Application tensor selection id != Operation tensor selection id").
					WithContext(positionCtx...).
					WithContext(shardCtx, opCtx))
				valid = false
				continue
			}

			if !sigSel.Range.ContainsRange(shardSel.Range) {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Application selection range %s is outside the operation range %s",
						shardSel.Range, sigSel.Range).
					WithContext(positionCtx...).
					WithContext(shardCtx, opCtx))
				valid = false
			}
		}
	}
	return valid
}

// validateInputCoverage requires, per input slot position, that the
// bounding range of the shard ranges equals the signature range exactly.
// Shard containment was already established, so any inequality is a gap.
func (c OperationAgreement) validateInputCoverage(
	op *graph.Node,
	body graph.OperationBody,
	shards []*graph.Node,
	collector validate.Collector,
) bool {
	valid := true
	for _, slot := range body.Inputs.SortedSlots() {
		sigSels := body.Inputs[slot]
		for idx, sigSel := range sigSels {
			shardRanges := collectShardRanges(shards, func(b graph.ApplicationBody) []graph.TensorSelection {
				return b.Inputs[slot]
			}, idx)

			bounding, err := zspace.BoundingRange(shardRanges...)
			if err != nil {
				panic(err)
			}
			if !sigSel.Range.Equal(bounding) {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Operation %s input %q range %s != shard bounding range %s",
						opLabel(op), slot, sigSel.Range, bounding).
					WithParam("slot", slot).
					WithParam("index", idx))
				valid = false
			}
		}
	}
	return valid
}

// validateOutputCoverage requires, per output slot position, an exact
// tiling: the bounding range of the shard ranges equals the signature
// range, no two shard ranges overlap, and the shard sizes sum to the
// signature range's size. The overlap check runs pairwise and
// unconditionally; an overlap compensated by an equal-sized gap keeps
// both the bounding range and the size sum intact, so neither arithmetic
// check can stand in for it.
func (c OperationAgreement) validateOutputCoverage(
	op *graph.Node,
	body graph.OperationBody,
	shards []*graph.Node,
	collector validate.Collector,
) bool {
	valid := true
	for _, slot := range body.Outputs.SortedSlots() {
		sigSels := body.Outputs[slot]
		for idx, sigSel := range sigSels {
			shardRanges := collectShardRanges(shards, func(b graph.ApplicationBody) []graph.TensorSelection {
				return b.Outputs[slot]
			}, idx)

			bounding, err := zspace.BoundingRange(shardRanges...)
			if err != nil {
				panic(err)
			}
			if !sigSel.Range.Equal(bounding) {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Operation %s output %q range %s != shard bounding range %s",
						opLabel(op), slot, sigSel.Range, bounding).
					WithParam("slot", slot).
					WithParam("index", idx))
				valid = false
			}

			for i := 0; i < len(shardRanges); i++ {
				for k := i + 1; k < len(shardRanges); k++ {
					if shardRanges[i].Overlaps(shardRanges[k]) {
						collector.Add(validate.
							Issuef(validate.KindNodeValidation, "Overlapping Application output ranges").
							WithParam("slot", slot).
							WithParam("index", idx).
							WithContext(validate.Context{
								Name: "Overlapping Ranges",
								Data: []zspace.Range{shardRanges[i], shardRanges[k]},
							}))
						valid = false
					}
				}
			}

			var total int64
			for _, r := range shardRanges {
				total += r.Size()
			}
			// A sum above the signature size always comes with a pairwise
			// overlap, reported above; only the shortfall needs its own issue.
			if total < sigSel.Range.Size() {
				collector.Add(validate.
					Issuef(validate.KindNodeValidation, "Application output ranges do not cover the operation range").
					WithParam("slot", slot).
					WithParam("index", idx).
					WithParam("shardSizeSum", total).
					WithParam("operationSize", sigSel.Range.Size()))
				valid = false
			}
		}
	}
	return valid
}

// reportCycles emits one ReferenceCycleError per elementary cycle in the
// tensor/operation link graph.
func reportCycles(g *graph.Graph, collector validate.Collector) {
	for _, cycle := range graph.BuildLinkGraph(g).SimpleCycles() {
		members := make([]map[string]string, 0, len(cycle))
		for _, id := range cycle {
			node, ok := g.Lookup(id)
			if !ok {
				continue
			}
			member := map[string]string{
				"id":   node.ID.String(),
				"kind": node.Kind,
			}
			if node.Label != "" {
				member["label"] = node.Label
			}
			members = append(members, member)
		}

		collector.Add(validate.
			Issuef(validate.KindReferenceCycle, "Reference cycle detected").
			WithContext(validate.Context{Name: "Cycle", Data: members}))
	}
}

// collectShardRanges gathers the range at one slot position from every
// shard. Arity agreement was checked beforehand, so the position exists.
func collectShardRanges(
	shards []*graph.Node,
	slotOf func(graph.ApplicationBody) []graph.TensorSelection,
	idx int,
) []zspace.Range {
	ranges := make([]zspace.Range, 0, len(shards))
	for _, shard := range shards {
		ranges = append(ranges, slotOf(shard.ApplicationBody())[idx].Range)
	}
	return ranges
}

func opLabel(op *graph.Node) string {
	if op.Label != "" {
		return op.Label
	}
	return op.ID.String()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

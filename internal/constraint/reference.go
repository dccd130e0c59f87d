package constraint

import (
	"github.com/google/uuid"

	"github.com/weftlab/weft/internal/graph"
	"github.com/weftlab/weft/internal/validate"
)

// validateNodeReference resolves an id to a node of the expected kind.
// On failure it appends one NodeReferenceError carrying the locator path
// and the caller's contexts, and returns nil.
func validateNodeReference(
	g *graph.Graph,
	id uuid.UUID,
	kind string,
	path string,
	collector validate.Collector,
	contexts ...validate.Context,
) *graph.Node {
	node, ok := g.Lookup(id)
	if !ok {
		collector.Add(validate.
			Issuef(validate.KindNodeReference, "Referenced node %s does not exist", id).
			WithParam("nodeId", id).
			WithParam("nodeKind", kind).
			WithContext(validate.Context{Name: "Reference", Path: path}).
			WithContext(contexts...))
		return nil
	}
	if node.Kind != kind {
		collector.Add(validate.
			Issuef(validate.KindNodeReference, "Referenced node %s has kind %q, expected %q", id, node.Kind, kind).
			WithParam("nodeId", id).
			WithParam("expectedKind", kind).
			WithParam("actualKind", node.Kind).
			WithContext(validate.Context{Name: "Reference", Path: path}).
			WithContext(contexts...))
		return nil
	}
	return node
}

// nodeContext snapshots a node as issue evidence.
func nodeContext(g *graph.Graph, name string, n *graph.Node) validate.Context {
	return validate.Context{
		Name: name,
		Path: g.NodePath(n.ID),
		Data: n,
	}
}

package graph

import (
	"sort"

	"github.com/google/uuid"

	"github.com/weftlab/weft/internal/zspace"
)

// Node kinds registered by the tensor-ops environment.
const (
	KindTensor      = "Tensor"
	KindOperation   = "Operation"
	KindApplication = "Application"
	KindNote        = "Note"
)

// Node is one entry in a graph: a stable identity, a kind tag, an optional
// human label, and a kind-specific body.
type Node struct {
	ID    uuid.UUID `json:"id"`
	Kind  string    `json:"kind"`
	Label string    `json:"label,omitempty"`
	Body  any       `json:"body"`
}

// Spatial is the capability interface for bodies that occupy a coordinate
// range. It replaces the deep node-class hierarchy of wrapper types: a
// body either has an extent or it does not.
type Spatial interface {
	Extent() zspace.Range
	Shape() zspace.Point
	Size() int64
}

// TensorSelection references a sub-range of a tensor's coordinate space.
type TensorSelection struct {
	TensorID uuid.UUID    `json:"tensor_id"`
	Range    zspace.Range `json:"range"`
}

// SelectionMap maps slot names to ordered tensor selections.
type SelectionMap map[string][]TensorSelection

// SortedSlots returns the slot names in sorted order for deterministic
// iteration and reporting.
func (m SelectionMap) SortedSlots() []string {
	slots := make([]string, 0, len(m))
	for name := range m {
		slots = append(slots, name)
	}
	sort.Strings(slots)
	return slots
}

// ProjectionSet maps slot names to ordered index projection functions,
// positionally aligned with the corresponding SelectionMap entries.
type ProjectionSet map[string][]zspace.ProjectionMap

// SortedSlots returns the slot names in sorted order.
func (p ProjectionSet) SortedSlots() []string {
	slots := make([]string, 0, len(p))
	for name := range p {
		slots = append(slots, name)
	}
	sort.Strings(slots)
	return slots
}

// TensorBody declares a tensor: an element type and the coordinate range
// the tensor occupies.
type TensorBody struct {
	DType string       `json:"dtype"`
	Range zspace.Range `json:"range"`
}

// Extent returns the tensor's coordinate range.
func (b TensorBody) Extent() zspace.Range { return b.Range }

// Shape returns the tensor's per-axis extents.
func (b TensorBody) Shape() zspace.Point { return b.Range.Shape() }

// Size returns the number of elements in the tensor.
func (b TensorBody) Size() int64 { return b.Range.Size() }

// OperationBody declares the whole (unsharded) access pattern of an
// operation: named input and output slots, and optionally the index space
// it is tiled over together with per-slot projections from that space.
type OperationBody struct {
	Kernel            string        `json:"kernel"`
	Inputs            SelectionMap  `json:"inputs,omitempty"`
	Outputs           SelectionMap  `json:"outputs,omitempty"`
	IndexRange        *zspace.Range `json:"index_range,omitempty"`
	InputProjections  ProjectionSet `json:"input_projections,omitempty"`
	OutputProjections ProjectionSet `json:"output_projections,omitempty"`
}

// ApplicationBody is one shard of an operation: the same slot names with
// (generally) smaller selections, plus optionally the index-space
// sub-range the shard covers.
type ApplicationBody struct {
	OperationID uuid.UUID     `json:"operation_id"`
	Inputs      SelectionMap  `json:"inputs,omitempty"`
	Outputs     SelectionMap  `json:"outputs,omitempty"`
	IndexRange  *zspace.Range `json:"index_range,omitempty"`
}

// NoteBody is a free-form annotation node.
type NoteBody struct {
	Text string `json:"text"`
}

// TensorBody returns the node's body as a TensorBody.
// Callers must have checked the node kind first.
func (n *Node) TensorBody() TensorBody { return n.Body.(TensorBody) }

// OperationBody returns the node's body as an OperationBody.
func (n *Node) OperationBody() OperationBody { return n.Body.(OperationBody) }

// ApplicationBody returns the node's body as an ApplicationBody.
func (n *Node) ApplicationBody() ApplicationBody { return n.Body.(ApplicationBody) }

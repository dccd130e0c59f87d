package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/weftlab/weft/internal/validate"
)

// Graph is an insertion-ordered set of nodes. It is a plain container:
// build it fully, then validate the finished snapshot. Mutating a graph
// while a validation pass reads it is unsupported.
type Graph struct {
	nodes map[uuid.UUID]*Node
	order []uuid.UUID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[uuid.UUID]*Node)}
}

// Add inserts a node, failing on a duplicate identity.
func (g *Graph) Add(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("graph: duplicate node id %s", n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Lookup finds a node by identity.
func (g *Graph) Lookup(id uuid.UUID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// LookupKind finds a node by identity and checks its kind.
func (g *Graph) LookupKind(id uuid.UUID, kind string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("graph: no node with id %s", id)
	}
	if n.Kind != kind {
		return nil, fmt.Errorf("graph: node %s has kind %q, want %q", id, n.Kind, kind)
	}
	return n, nil
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfKind returns the nodes of one kind in insertion order.
func (g *Graph) NodesOfKind(kind string) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// ApplicationsOf returns the Application shards declaring the given
// operation, in insertion order.
func (g *Graph) ApplicationsOf(opID uuid.UUID) []*Node {
	var out []*Node
	for _, n := range g.NodesOfKind(KindApplication) {
		if n.ApplicationBody().OperationID == opID {
			out = append(out, n)
		}
	}
	return out
}

// AddTensor appends a new Tensor node and returns it.
func (g *Graph) AddTensor(label string, body TensorBody) *Node {
	return g.addNew(KindTensor, label, body)
}

// AddOperation appends a new Operation node and returns it.
func (g *Graph) AddOperation(label string, body OperationBody) *Node {
	return g.addNew(KindOperation, label, body)
}

// AddApplication appends a new Application shard node and returns it.
func (g *Graph) AddApplication(body ApplicationBody) *Node {
	return g.addNew(KindApplication, "", body)
}

// AddNote appends a new annotation node and returns it.
func (g *Graph) AddNote(text string) *Node {
	return g.addNew(KindNote, "", NoteBody{Text: text})
}

func (g *Graph) addNew(kind, label string, body any) *Node {
	n := &Node{ID: uuid.New(), Kind: kind, Label: label, Body: body}
	if err := g.Add(n); err != nil {
		// Freshly generated UUIDs do not collide.
		panic(err)
	}
	return n
}

// Constraint is one validation pass over a finished graph. Implementations
// append issues to the collector and keep going; they never stop at the
// first finding.
type Constraint interface {
	// CheckRequirements panics if the environment is missing a node kind
	// the constraint depends on. That is a wiring bug, not document data.
	CheckRequirements(env *Environment)

	// Validate appends every violation found in the graph to the collector.
	Validate(env *Environment, g *Graph, collector validate.Collector)
}

// Environment is the explicit configuration for decoding and validating
// graphs: the registered node kinds with their body decoders, and the
// constraint list. There is no ambient global registry; callers pass the
// environment they mean.
type Environment struct {
	kinds       map[string]BodyDecoder
	constraints []Constraint
}

// BodyDecoder decodes a node body of one registered kind.
type BodyDecoder func(data []byte) (any, error)

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{kinds: make(map[string]BodyDecoder)}
}

// RegisterKind registers a node kind and its body decoder.
func (e *Environment) RegisterKind(kind string, dec BodyDecoder) {
	e.kinds[kind] = dec
}

// HasKind reports whether the kind is registered.
func (e *Environment) HasKind(kind string) bool {
	_, ok := e.kinds[kind]
	return ok
}

// AssertKind panics when the kind is not registered.
func (e *Environment) AssertKind(kind string) {
	if !e.HasKind(kind) {
		panic(fmt.Sprintf("graph: node kind %q is not registered in the environment", kind))
	}
}

// AddConstraint appends a constraint to the validation pass.
func (e *Environment) AddConstraint(c Constraint) {
	e.constraints = append(e.constraints, c)
}

// Validate runs every constraint over the graph and returns the collected
// issues in report order.
func (e *Environment) Validate(g *Graph) []validate.Issue {
	collector := &validate.ListCollector{}
	for _, c := range e.constraints {
		c.CheckRequirements(e)
		c.Validate(e, g, collector)
	}
	return collector.Issues()
}

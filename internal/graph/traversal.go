package graph

import (
	"sort"

	"github.com/google/uuid"
)

// LinkGraph is the data-flow graph induced by tensor references: an edge
// runs from each input tensor to the operation that reads it, and from an
// operation to each tensor it produces. Vertices appear in first-seen
// order so cycle enumeration is deterministic.
type LinkGraph struct {
	verts []uuid.UUID
	index map[uuid.UUID]int
	edges map[int]map[int]bool
}

// BuildLinkGraph constructs the tensor/operation link graph.
func BuildLinkGraph(g *Graph) *LinkGraph {
	lg := &LinkGraph{
		index: make(map[uuid.UUID]int),
		edges: make(map[int]map[int]bool),
	}

	for _, op := range g.NodesOfKind(KindOperation) {
		body := op.OperationBody()
		opIdx := lg.vertex(op.ID)

		for _, slot := range body.Inputs.SortedSlots() {
			for _, sel := range body.Inputs[slot] {
				lg.addEdge(lg.vertex(sel.TensorID), opIdx)
			}
		}
		for _, slot := range body.Outputs.SortedSlots() {
			for _, sel := range body.Outputs[slot] {
				lg.addEdge(opIdx, lg.vertex(sel.TensorID))
			}
		}
	}
	return lg
}

func (lg *LinkGraph) vertex(id uuid.UUID) int {
	if i, ok := lg.index[id]; ok {
		return i
	}
	i := len(lg.verts)
	lg.verts = append(lg.verts, id)
	lg.index[id] = i
	return i
}

func (lg *LinkGraph) addEdge(from, to int) {
	if lg.edges[from] == nil {
		lg.edges[from] = make(map[int]bool)
	}
	lg.edges[from][to] = true
}

// adjacency returns edge lists in vertex order.
func (lg *LinkGraph) adjacency() [][]int {
	adj := make([][]int, len(lg.verts))
	for from, tos := range lg.edges {
		for to := range tos {
			adj[from] = append(adj[from], to)
		}
	}
	for _, list := range adj {
		sortInts(list)
	}
	return adj
}

// SimpleCycles enumerates every elementary cycle in the link graph using
// Johnson's algorithm, seeded by Tarjan strongly-connected components.
// Single-vertex cycles cannot occur here (edges always connect a tensor
// and an operation), but they are filtered regardless.
//
// The number of elementary cycles can grow exponentially with graph
// density; this enumeration is the dominant cost of a validation pass on
// pathological graphs.
func (lg *LinkGraph) SimpleCycles() [][]uuid.UUID {
	adj := lg.adjacency()
	n := len(adj)

	var cycles [][]uuid.UUID
	emit := func(path []int) {
		if len(path) <= 1 {
			return
		}
		cycle := make([]uuid.UUID, len(path))
		for i, v := range path {
			cycle[i] = lg.verts[v]
		}
		cycles = append(cycles, cycle)
	}

	// Johnson's algorithm: repeatedly take the SCC containing the least
	// unprocessed vertex, enumerate the cycles through that vertex, then
	// remove it and continue.
	start := 0
	for start < n {
		scc := leastSCC(adj, start)
		if scc == nil {
			break
		}
		root := scc[0]

		inSCC := make(map[int]bool, len(scc))
		for _, v := range scc {
			inSCC[v] = true
		}

		j := &johnsonState{
			adj:       adj,
			inSCC:     inSCC,
			blocked:   make(map[int]bool),
			blockedBy: make(map[int]map[int]bool),
			root:      root,
			emit:      emit,
		}
		j.circuit(root)

		start = root + 1
	}
	return cycles
}

// leastSCC finds, over the subgraph induced by vertices >= start, the
// strongly connected component containing the least vertex that belongs
// to a component with at least one internal edge. Returns the component
// sorted ascending, or nil when none remains.
func leastSCC(adj [][]int, start int) []int {
	sccs := tarjanSCC(adj, start)

	best := -1
	var bestSCC []int
	for _, scc := range sccs {
		if len(scc) < 2 && !hasSelfLoop(adj, scc[0]) {
			continue
		}
		least := scc[0]
		for _, v := range scc {
			if v < least {
				least = v
			}
		}
		if best == -1 || least < best {
			best = least
			bestSCC = scc
		}
	}
	if bestSCC == nil {
		return nil
	}

	sorted := make([]int, len(bestSCC))
	copy(sorted, bestSCC)
	sortInts(sorted)
	return sorted
}

func hasSelfLoop(adj [][]int, v int) bool {
	for _, w := range adj[v] {
		if w == v {
			return true
		}
	}
	return false
}

// tarjanSCC computes strongly connected components of the subgraph
// induced by vertices >= start.
func tarjanSCC(adj [][]int, start int) [][]int {
	n := len(adj)
	const unvisited = -1

	index := 0
	indices := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range indices {
		indices[i] = unvisited
	}

	var stack []int
	var sccs [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if w < start {
				continue
			}
			if indices[w] == unvisited {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && indices[w] < lowlink[v] {
				lowlink[v] = indices[w]
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := start; v < n; v++ {
		if indices[v] == unvisited {
			strongConnect(v)
		}
	}
	return sccs
}

// johnsonState carries the blocking bookkeeping of Johnson's circuit
// search within one strongly connected component.
type johnsonState struct {
	adj       [][]int
	inSCC     map[int]bool
	blocked   map[int]bool
	blockedBy map[int]map[int]bool
	path      []int
	root      int
	emit      func(path []int)
}

func (j *johnsonState) circuit(v int) bool {
	found := false
	j.path = append(j.path, v)
	j.blocked[v] = true

	for _, w := range j.adj[v] {
		if !j.inSCC[w] {
			continue
		}
		if w == j.root {
			j.emit(j.path)
			found = true
		} else if !j.blocked[w] {
			if j.circuit(w) {
				found = true
			}
		}
	}

	if found {
		j.unblock(v)
	} else {
		for _, w := range j.adj[v] {
			if !j.inSCC[w] {
				continue
			}
			if j.blockedBy[w] == nil {
				j.blockedBy[w] = make(map[int]bool)
			}
			j.blockedBy[w][v] = true
		}
	}

	j.path = j.path[:len(j.path)-1]
	return found
}

func (j *johnsonState) unblock(v int) {
	j.blocked[v] = false
	for w := range j.blockedBy[v] {
		if j.blocked[w] {
			j.unblock(w)
		}
	}
	delete(j.blockedBy, v)
}

func sortInts(list []int) {
	sort.Ints(list)
}

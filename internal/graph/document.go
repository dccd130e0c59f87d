package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Document envelope: graphs are exchanged across process boundaries as
// JSON documents with a flat node list.
type documentJSON struct {
	Nodes []nodeJSON `json:"nodes"`
}

type nodeJSON struct {
	ID    uuid.UUID       `json:"id"`
	Kind  string          `json:"kind"`
	Label string          `json:"label,omitempty"`
	Body  json.RawMessage `json:"body"`
}

// DecodeDocument decodes a graph document using the environment's
// registered kinds. Unknown kinds, duplicate identities, and malformed
// bodies are errors; geometry invariants are re-validated during body
// decoding by the zspace types themselves.
func (e *Environment) DecodeDocument(data []byte) (*Graph, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph: decoding document: %w", err)
	}

	g := NewGraph()
	for i, raw := range doc.Nodes {
		dec, ok := e.kinds[raw.Kind]
		if !ok {
			return nil, fmt.Errorf("graph: nodes[%d]: unknown node kind %q", i, raw.Kind)
		}
		if raw.ID == uuid.Nil {
			return nil, fmt.Errorf("graph: nodes[%d]: missing node id", i)
		}

		body, err := dec(raw.Body)
		if err != nil {
			return nil, fmt.Errorf("graph: nodes[%d] (%s %s): %w", i, raw.Kind, raw.ID, err)
		}

		n := &Node{ID: raw.ID, Kind: raw.Kind, Label: raw.Label, Body: body}
		if err := g.Add(n); err != nil {
			return nil, fmt.Errorf("graph: nodes[%d]: %w", i, err)
		}
	}
	return g, nil
}

// EncodeDocument encodes the graph as a document, nodes in insertion
// order. The encoding round-trips through DecodeDocument for any
// environment that registers the same kinds.
func EncodeDocument(g *Graph) ([]byte, error) {
	doc := documentJSON{Nodes: make([]nodeJSON, 0, g.Len())}
	for _, n := range g.Nodes() {
		body, err := json.Marshal(n.Body)
		if err != nil {
			return nil, fmt.Errorf("graph: encoding body of node %s: %w", n.ID, err)
		}
		doc.Nodes = append(doc.Nodes, nodeJSON{ID: n.ID, Kind: n.Kind, Label: n.Label, Body: body})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// decodeBody is the generic body decoder for a concrete body type.
func decodeBody[T any](data []byte) (any, error) {
	var body T
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// RegisterTensorOpsKinds registers the four node kinds of the tensor-ops
// dialect on the environment.
func (e *Environment) RegisterTensorOpsKinds() *Environment {
	e.RegisterKind(KindTensor, decodeBody[TensorBody])
	e.RegisterKind(KindOperation, decodeBody[OperationBody])
	e.RegisterKind(KindApplication, decodeBody[ApplicationBody])
	e.RegisterKind(KindNote, decodeBody[NoteBody])
	return e
}

// NodePath returns the JSON-pointer-style locator of a node in its
// document, e.g. "/nodes/3".
func (g *Graph) NodePath(id uuid.UUID) string {
	for i, nid := range g.order {
		if nid == id {
			return fmt.Sprintf("/nodes/%d", i)
		}
	}
	return ""
}

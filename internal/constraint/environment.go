package constraint

import "github.com/weftlab/weft/internal/graph"

// DefaultEnvironment builds the standard tensor-ops validation
// environment: the four node kinds plus the operation and projection
// agreement constraints.
func DefaultEnvironment() *graph.Environment {
	env := graph.NewEnvironment().RegisterTensorOpsKinds()
	env.AddConstraint(OperationAgreement{})
	env.AddConstraint(ProjectionAgreement{})
	return env
}

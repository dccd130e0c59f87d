// Package constraint implements the semantic validation passes over
// tensor-program graphs: operation/shard agreement (reference integrity,
// coverage, overlap, cycle freedom) and projection agreement (index-space
// projections matching declared selections).
//
// Every constraint collects all violations it can find in one pass; a
// finding never aborts the sweep. Panics are reserved for wiring bugs
// such as validating against an environment missing a required node kind.
package constraint

// Package graph provides the tensor-program graph container: nodes with
// tagged-variant bodies (Tensor, Operation, Application, Note), document
// encoding and decoding, canonical JSON hashing for document identity, and
// traversal of the tensor/operation data-flow graph.
//
// Graphs are built once and validated as an immutable snapshot. The
// container performs no validation beyond structural decoding; semantic
// checks live in the constraint package and report through the validate
// package.
package graph

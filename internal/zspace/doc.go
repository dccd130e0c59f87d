// Package zspace implements exact integer coordinate geometry: points,
// half-open axis-aligned ranges, affine maps, and range projection maps.
//
// The value space is strictly integer (int64); there are no floats anywhere.
// All exported types are immutable value objects - every operation returns a
// new value. The one exception is Vec, a mutable coordinate buffer for
// callers that own their storage exclusively.
//
// Shape incompatibilities, negative exponents, and rank mismatches are
// programmer errors and panic. They never occur from well-formed graph
// documents; document-level violations are reported through the validate
// package instead.
package zspace

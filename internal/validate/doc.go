// Package validate defines the structured diagnostic model for graph
// validation: issues with parameters and named contexts, an append-only
// collector, and the human-readable report renderer.
//
// Constraints append issues and continue; nothing in this package stops a
// validation pass early. The caller drains the collector and raises one
// aggregate error when it is non-empty.
package validate

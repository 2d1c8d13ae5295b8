// Package ops implements the graph algebra over PROV documents: merge,
// dedupe, pseudonymize, alias-based agent merging and statistics.
//
// Every operation returns a new document and leaves its input untouched.
package ops

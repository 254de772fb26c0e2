// Binary infer_projection loads a saved projection model and writes the
// predicted surface for the given process parameters as CSV.
package main

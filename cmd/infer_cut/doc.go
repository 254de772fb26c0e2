// Binary infer_cut loads a saved cut model and writes the predicted
// cut for the given process parameters as CSV.
package main

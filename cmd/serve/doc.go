// Binary serve exposes a saved model through an interactive HTML page:
// one slider per process parameter, live prediction plots.
package main

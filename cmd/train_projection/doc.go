// Binary train_projection fits a 2D projection regression model from an
// experiment configuration file, optionally searching the hyperparameter
// space first.
package main

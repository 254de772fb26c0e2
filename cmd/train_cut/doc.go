// Binary train_cut fits a 1D cut regression model from an experiment
// configuration file, optionally searching the hyperparameter space first.
package main

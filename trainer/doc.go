// Package trainer provides high-level training orchestration for the
// regression networks: mini-batch gradient descent with Adam, cosine
// annealing of the learning rate and validation-based early stopping.
package trainer

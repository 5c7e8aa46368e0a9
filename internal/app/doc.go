// Package app wires the translator: configuration, logging, the artifact
// sink, the run history, metrics and watch mode around the load, finish,
// validate, resolve and emit stages.
package app

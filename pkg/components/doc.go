// Package components is a small catalog of concrete components built on
// pkg/component. They cover chat and text I/O, message plumbing, prompt
// templating, variables and a toy vector store, and are enough to assemble
// and exercise real flows end to end.
//
// Register adds every type to a registry.Registry under its type name.
package components

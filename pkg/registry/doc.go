// Package registry is the component catalog: it maps the type names used in
// serialized flows to constructors of concrete components.
package registry

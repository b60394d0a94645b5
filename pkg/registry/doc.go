// Package registry holds the static catalog of supported question types and the
// caller-injected registry of custom validation predicates.
package registry

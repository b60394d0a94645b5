// Package lineage serializes mutations of a template lineage.
//
// Creating a version, editing a draft in place and switching the active version are
// read-then-write sequences. The Manager runs them one at a time per lineage inside a
// process and, when a DistributedLocker is configured, across replicas.
package lineage

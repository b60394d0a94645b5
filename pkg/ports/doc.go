/*
Package ports defines the driven ports (interfaces) of the form engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, lock services and event sinks.

# Key Interfaces

  - TemplateStore: Persists template versions and offers the atomic primitives the
    version lifecycle relies on (unique versions per lineage, revision checks, activation).
  - DistributedLocker: Serializes lineage mutations across replicas.
  - EventPublisher: Notifies the workflow subsystem about lifecycle changes.
*/
package ports

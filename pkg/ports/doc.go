/*
Package ports defines the driven ports (interfaces) for the Espalier engine.

These interfaces decouple the core attachment logic from host specifics,
allowing the teardown pipeline to consume any tree-change feed and the
attachment journal to persist to any backend.

# Key Interfaces

  - MutationFeed: A subscribable stream of batched structural-change records.
  - Journal: Durable audit log of attach and destroy events per node.
*/
package ports

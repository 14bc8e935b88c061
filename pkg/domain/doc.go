/*
Package domain contains the core domain models for the Espalier engine.

It defines the fundamental entities of the attachment system: the Node
abstraction over the host tree, Type Descriptors and their capability
hierarchy, the Instance lifecycle contract, cancellation Handles, and the
mutation records consumed by the teardown pipeline. This package is kept pure
and free of external I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node: An element of the externally-owned, mutable document tree.
  - Descriptor: A registered behavior type (name, capability, hierarchy).
  - Instance: A live behavior object bound to a single node.
  - Handle: A cancellation token for one event subscription.
  - MutationRecord: A structural change observed on the tree.
*/
package domain

package domain

// MutationRecord describes one structural change observed on the tree.
// Hosts batch records and deliver them asynchronously relative to the
// mutation itself; only the removed subtree root appears in Removed, never
// its descendants.
type MutationRecord struct {
	// Target is the node whose child list changed.
	Target Node
	// Added lists children attached to Target.
	Added []Node
	// Removed lists children detached from Target.
	Removed []Node
}

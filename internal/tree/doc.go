// Package tree wraps a renderer's native node tree in a queryable view.
//
// A renderer exposes its committed tree through the Native interface. Wrap
// turns a Native node into a *Node that can be searched (Find, FindOne,
// Query), inspected (Props, Children, Text, Ref) and driven (Dispatch,
// DispatchAsync). Every state-changing call goes through a Committer, which
// in practice is an *act.Scheduler, so handlers always run inside a commit
// boundary.
//
// # Snapshots
//
// A Node remembers the generation of the tree it was taken from. Once the
// owning session commits again the Node is stale: reads still describe the
// old snapshot, while Dispatch and DispatchAsync refuse with ErrStaleSnapshot.
// Re-query from the session root to get a fresh view.
//
// # Text children
//
// Children are a tagged variant. A Child is either a text run or a node;
// IsText reports which.
package tree

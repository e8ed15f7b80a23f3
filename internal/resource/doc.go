// Package resource implements the navigable media tree: nodes, their
// two-phase lazy initialization, and the tree that names them.
//
// A Node moves through Unrealized, Discovered and Resolved. DiscoverChildren
// enumerates children at most once per epoch no matter how many goroutines
// ask; concurrent callers block on the first and then observe its result.
// Resolve probes the node's own metadata once. RefreshChildren builds a new
// child set, swaps it in as a unit, and releases the identifiers of the old
// descendants while the node keeps its own.
//
// Concrete behavior comes from a Provider plus the optional capability
// interfaces Discoverer, Resolver, Opener, Pusher, RefreshChecker and
// SeekChecker. Variants of one source are built with Derive, which shares
// metadata by reference unless a split range changes the duration.
package resource

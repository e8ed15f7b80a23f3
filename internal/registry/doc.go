// Package registry hands out and reclaims the integer identifiers that name
// resource nodes on the wire.
//
// Identifiers start at 1 and increase monotonically; 0 is reserved for the
// tree root as seen by remote clients. Entries are appended in id order and
// removal only tombstones them, so lookup is a bounded binary search rather
// than a map probe. Tombstoned entries are compacted away in bulk, which is
// safe because the search window accounts for every entry ever removed.
package registry

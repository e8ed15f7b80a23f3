// Package lists persists named entry lists such as the playback history and
// exposes each list as a container whose children are fresh nodes for the
// referenced items.
//
// A list file holds one entry per line:
//
//	<tag>;[resume:<ms>;][sub:<lang>,<source>;][player:<name>;]<payload>
//
// The tag names the factory that owns the payload. Lines starting with '#'
// are comments. Malformed lines are reported and skipped.
package lists

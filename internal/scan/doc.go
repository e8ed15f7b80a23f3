// Package scan walks the resource tree in the background so containers are
// discovered and refreshed before a client asks for them.
//
// A Scanner performs one depth-first walk. Stopping is cooperative: the stop
// flag is checked between siblings, so a container is either rebuilt as a
// whole or left as it was. Before each child the scanner yields to active
// playback through the tree's realtime lock. Manager runs at most one scan at
// a time and keeps the result of the last one.
package scan

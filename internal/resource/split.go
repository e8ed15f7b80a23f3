package resource

import (
	"fmt"
	"time"
)

// OpenEnd marks a split range whose end is not known yet.
const OpenEnd time.Duration = -1

// SplitRange is the half-open window [Start, End) of a source exposed as its
// own node.
type SplitRange struct {
	Start time.Duration
	End   time.Duration
}

// IsOpen reports whether the end is still unknown.
func (r SplitRange) IsOpen() bool { return r.End == OpenEnd }

// Length returns End-Start when the range is closed.
func (r SplitRange) Length() (time.Duration, bool) {
	if r.IsOpen() {
		return 0, false
	}
	return r.End - r.Start, true
}

// Validate checks Start <= End once both are set.
func (r SplitRange) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("split range start %v is negative", r.Start)
	}
	if !r.IsOpen() && r.End < r.Start {
		return fmt.Errorf("split range end %v precedes start %v", r.End, r.Start)
	}
	return nil
}

func (r SplitRange) String() string {
	if r.IsOpen() {
		return fmt.Sprintf("[%v, ...)", r.Start)
	}
	return fmt.Sprintf("[%v, %v)", r.Start, r.End)
}

// ResolveSplitEnds closes open split ranges in sibling order: each open range
// ends where the next ranged sibling starts, and the last one ends at total.
// Folder-typed siblings are skipped when looking back for the range to close.
// It returns the number of ranges closed.
func ResolveSplitEnds(children []*Node, total time.Duration) int {
	closed := 0
	var prev *Node
	for _, child := range children {
		if child.IsFolder() {
			continue
		}
		r, ok := child.SplitRange()
		if !ok {
			continue
		}
		if prev != nil && prev.closeSplit(r.Start) {
			closed++
		}
		prev = child
	}
	if prev != nil && total > 0 && prev.closeSplit(total) {
		closed++
	}
	return closed
}

// Package optical watches udev netlink events for the configured optical
// drive and reports media changes so the disc folder can be invalidated.
package optical

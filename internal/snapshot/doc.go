// Package snapshot builds point-in-time views of every UPS known to upsd.
//
// A SystemSnapshot is either fully populated or carries a single error
// cause. A failure while reading any one device collapses the whole poll
// into the error state; the healthy devices of that poll are discarded.
package snapshot

// Package risingbar decides which lifters attempt next.
//
// Within the active (lift, attempt number) phase lifters go in ascending
// order of requested weight; the lot number breaks ties and the competitor
// name breaks what remains, so the order is never ambiguous.
// The queue is recomputed from a full snapshot on every change.
package risingbar

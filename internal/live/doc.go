// Package live keeps the latest desk state per contest and fans events out
// to display subscribers and external sinks.
//
// The Hub is owned by whoever creates it; there is no process-wide instance.
// Sinks are best-effort: a failing sink never fails the desk operation that
// produced the event.
package live

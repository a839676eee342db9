// Package viz renders a live view of a running solve: iteration count,
// objective history, and per-goal breakdown, updated as the optimizer
// reports progress.
package viz

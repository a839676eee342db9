// Package analysis inspects solved gait trajectories.
//
// The package works on solution tables (time plus state and control
// columns) and provides:
//
//   - [Summary]: per-column range of motion and RMS
//   - [DominantFrequency]: spectral estimate of the gait frequency
//   - [GeneratePhasePortrait]: coordinate value versus speed plots
//
// # Gait frequency
//
// A periodic walking motion shows up as a sharp peak in the power spectrum
// of any joint angle:
//
//	freq := analysis.DominantFrequency(tbl.Times, hipAngle)
package analysis

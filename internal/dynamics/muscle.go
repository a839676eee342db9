package dynamics

import (
	"math"

	"github.com/motionlab/gaittrack/internal/osim"
)

// Active force-length curve width at unit curve-width scale.
const baseCurveWidth = 0.45

// muscleForce computes rigid-tendon musculotendon force at activation a and
// joint angle q. The normalized fiber length tracks the joint excursion
// through the muscle's moment arm.
func muscleForce(mus *osim.Muscle, a, q float64) float64 {
	lf := normalizedFiberLength(mus, q)
	f := mus.MaxIsometricForce * a * activeForceLength(mus, lf)
	if !mus.IgnorePassiveForce {
		f += mus.MaxIsometricForce * passiveForceLength(lf)
	}
	return f
}

func normalizedFiberLength(mus *osim.Muscle, q float64) float64 {
	if mus.OptimalFiberLength <= 0 {
		return 1
	}
	return 1 - mus.MomentArm*q/mus.OptimalFiberLength
}

func activeForceLength(mus *osim.Muscle, lf float64) float64 {
	w := baseCurveWidth * mus.CurveWidth
	if w <= 0 {
		w = baseCurveWidth
	}
	d := (lf - 1) / w
	return math.Exp(-d * d)
}

// passiveForceLength is an exponential passive fiber force, zero at or below
// optimal fiber length.
func passiveForceLength(lf float64) float64 {
	if lf <= 1 {
		return 0
	}
	return 0.02 * (math.Exp(4*(lf-1)) - 1)
}

package modelops

import (
	"fmt"
	"strings"

	"github.com/motionlab/gaittrack/internal/osim"
)

// AddExternalLoads attaches ground-reaction forces described by an
// external-loads XML descriptor, in lieu of a ground-contact model.
type AddExternalLoads struct {
	Path string
}

func (o AddExternalLoads) Name() string { return fmt.Sprintf("add_external_loads(%s)", o.Path) }

func (o AddExternalLoads) Apply(m *osim.Model) error {
	ext, err := osim.LoadExternalLoads(o.Path)
	if err != nil {
		return err
	}
	m.External = ext
	return nil
}

// RemoveMuscles strips every muscle from the model's force set, leaving a
// torque-driven model.
type RemoveMuscles struct{}

func (RemoveMuscles) Name() string { return "remove_muscles" }

func (RemoveMuscles) Apply(m *osim.Model) error {
	m.RemoveMuscles()
	return nil
}

// AddReserves adds a coordinate actuator with the given optimal force to
// every degree of freedom that does not already carry one, so residual
// actuators (the pelvis coordinates) keep their original strength.
type AddReserves struct {
	OptimalForce float64
}

func (o AddReserves) Name() string { return fmt.Sprintf("add_reserves(%g)", o.OptimalForce) }

func (o AddReserves) Apply(m *osim.Model) error {
	if o.OptimalForce <= 0 {
		return fmt.Errorf("reserve optimal force must be positive, got %g", o.OptimalForce)
	}
	actuated := make(map[string]bool, len(m.Actuators))
	for _, a := range m.Actuators {
		actuated[a.Coordinate] = true
	}
	for _, c := range m.Coordinates {
		if actuated[c.Name] {
			continue
		}
		m.AddActuator(&osim.CoordinateActuator{
			Name:         c.Name + "_reserve",
			Coordinate:   c.Name,
			OptimalForce: o.OptimalForce,
			MinControl:   -1,
			MaxControl:   1,
		})
	}
	return nil
}

// ReplaceMusclesWithDeGrooteFregly2016 swaps every muscle for its
// optimization-friendly DeGrooteFregly2016 counterpart, clamping the
// activation time constants to that model's defaults.
type ReplaceMusclesWithDeGrooteFregly2016 struct{}

func (ReplaceMusclesWithDeGrooteFregly2016) Name() string { return "replace_muscles_dgf2016" }

func (ReplaceMusclesWithDeGrooteFregly2016) Apply(m *osim.Model) error {
	for _, mus := range m.Muscles {
		mus.DeGrooteFregly = true
		if mus.ActivationTime <= 0 {
			mus.ActivationTime = 0.015
		}
		if mus.DeactivationTime <= 0 {
			mus.DeactivationTime = 0.060
		}
		if mus.CurveWidth <= 0 {
			mus.CurveWidth = 1.0
		}
	}
	return nil
}

// IgnorePassiveFiberForces disables passive fiber forces. Only valid for
// DeGrooteFregly2016 muscles.
type IgnorePassiveFiberForces struct{}

func (IgnorePassiveFiberForces) Name() string { return "ignore_passive_fiber_forces" }

func (IgnorePassiveFiberForces) Apply(m *osim.Model) error {
	if err := requireDGF(m, "ignore_passive_fiber_forces"); err != nil {
		return err
	}
	for _, mus := range m.Muscles {
		mus.IgnorePassiveForce = true
	}
	return nil
}

// ScaleActiveFiberForceCurveWidth widens the active force-length curve.
// Only valid for DeGrooteFregly2016 muscles.
type ScaleActiveFiberForceCurveWidth struct {
	Scale float64
}

func (o ScaleActiveFiberForceCurveWidth) Name() string {
	return fmt.Sprintf("scale_active_force_curve_width(%g)", o.Scale)
}

func (o ScaleActiveFiberForceCurveWidth) Apply(m *osim.Model) error {
	if o.Scale <= 0 {
		return fmt.Errorf("curve width scale must be positive, got %g", o.Scale)
	}
	if err := requireDGF(m, "scale_active_force_curve_width"); err != nil {
		return err
	}
	for _, mus := range m.Muscles {
		mus.CurveWidth *= o.Scale
	}
	return nil
}

func requireDGF(m *osim.Model, op string) error {
	var bad []string
	for _, mus := range m.Muscles {
		if !mus.DeGrooteFregly {
			bad = append(bad, mus.Name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%s requires DeGrooteFregly2016 muscles (offending: %s)", op, strings.Join(bad, ", "))
	}
	return nil
}

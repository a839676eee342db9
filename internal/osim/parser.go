package osim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// LoadModel reads a model description XML file. The root element may be a
// bare <Model> or a <Model> nested in an <OpenSimDocument> wrapper.
func LoadModel(path string) (*Model, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("osim: read model %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("osim: empty model document %s", path)
	}
	if root.Tag != "Model" {
		if inner := root.SelectElement("Model"); inner != nil {
			root = inner
		} else {
			return nil, fmt.Errorf("osim: no Model element in %s", path)
		}
	}
	return parseModel(root)
}

func parseModel(root *etree.Element) (*Model, error) {
	m := &Model{Name: root.SelectAttrValue("name", "model")}

	if js := root.FindElement("JointSet"); js != nil {
		for _, joint := range js.SelectElements("Joint") {
			jointName := joint.SelectAttrValue("name", "")
			for _, ce := range joint.SelectElements("Coordinate") {
				coord, err := parseCoordinate(ce, jointName)
				if err != nil {
					return nil, err
				}
				m.Coordinates = append(m.Coordinates, coord)
			}
		}
	}

	if fs := root.FindElement("ForceSet"); fs != nil {
		for _, me := range fs.SelectElements("Muscle") {
			mus, err := parseMuscle(me)
			if err != nil {
				return nil, err
			}
			m.Muscles = append(m.Muscles, mus)
		}
		for _, ae := range fs.SelectElements("CoordinateActuator") {
			act, err := parseActuator(ae)
			if err != nil {
				return nil, err
			}
			m.Actuators = append(m.Actuators, act)
		}
	}

	if ms := root.FindElement("MarkerSet"); ms != nil {
		for _, mke := range ms.SelectElements("Marker") {
			mk, err := parseMarker(mke)
			if err != nil {
				return nil, err
			}
			m.Markers = append(m.Markers, mk)
		}
	}

	if err := validateModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

func validateModel(m *Model) error {
	if len(m.Coordinates) == 0 {
		return fmt.Errorf("osim: model %s has no coordinates", m.Name)
	}
	for _, mus := range m.Muscles {
		if _, ok := m.Coordinate(mus.Coordinate); !ok {
			return fmt.Errorf("osim: muscle %s references unknown coordinate %s", mus.Name, mus.Coordinate)
		}
	}
	for _, act := range m.Actuators {
		if _, ok := m.Coordinate(act.Coordinate); !ok {
			return fmt.Errorf("osim: actuator %s references unknown coordinate %s", act.Name, act.Coordinate)
		}
	}
	return nil
}

func parseCoordinate(e *etree.Element, joint string) (*Coordinate, error) {
	c := &Coordinate{
		Name:      e.SelectAttrValue("name", ""),
		Joint:     joint,
		Motion:    e.SelectAttrValue("motion", MotionRotational),
		Inertia:   attrFloat(e, "inertia", 1.0),
		Damping:   attrFloat(e, "damping", 0.1),
		Stiffness: attrFloat(e, "stiffness", 0.0),
		Default:   attrFloat(e, "default", 0.0),
	}
	if c.Name == "" {
		return nil, fmt.Errorf("osim: coordinate in joint %s has no name", joint)
	}
	if r := e.SelectAttrValue("range", ""); r != "" {
		lo, hi, err := parseRange(r)
		if err != nil {
			return nil, fmt.Errorf("osim: coordinate %s: %w", c.Name, err)
		}
		c.Range = [2]float64{lo, hi}
	}
	return c, nil
}

func parseMuscle(e *etree.Element) (*Muscle, error) {
	m := &Muscle{
		Name:               e.SelectAttrValue("name", ""),
		Coordinate:         e.SelectAttrValue("coordinate", ""),
		MaxIsometricForce:  attrFloat(e, "max_isometric_force", 1000),
		OptimalFiberLength: attrFloat(e, "optimal_fiber_length", 0.1),
		TendonSlackLength:  attrFloat(e, "tendon_slack_length", 0.2),
		MomentArm:          attrFloat(e, "moment_arm", 0.05),
		ActivationTime:     attrFloat(e, "activation_time", 0.015),
		DeactivationTime:   attrFloat(e, "deactivation_time", 0.060),
		CurveWidth:         attrFloat(e, "curve_width", 1.0),
	}
	if m.Name == "" {
		return nil, fmt.Errorf("osim: muscle has no name")
	}
	if m.Coordinate == "" {
		return nil, fmt.Errorf("osim: muscle %s has no coordinate", m.Name)
	}
	return m, nil
}

func parseActuator(e *etree.Element) (*CoordinateActuator, error) {
	a := &CoordinateActuator{
		Name:         e.SelectAttrValue("name", ""),
		Coordinate:   e.SelectAttrValue("coordinate", ""),
		OptimalForce: attrFloat(e, "optimal_force", 1),
		MinControl:   attrFloat(e, "min_control", -1),
		MaxControl:   attrFloat(e, "max_control", 1),
	}
	if a.Name == "" {
		return nil, fmt.Errorf("osim: coordinate actuator has no name")
	}
	if a.Coordinate == "" {
		return nil, fmt.Errorf("osim: actuator %s has no coordinate", a.Name)
	}
	return a, nil
}

func parseMarker(e *etree.Element) (*Marker, error) {
	mk := &Marker{
		Name:          e.SelectAttrValue("name", ""),
		Body:          e.SelectAttrValue("body", ""),
		Coordinate:    e.SelectAttrValue("coordinate", ""),
		SegmentLength: attrFloat(e, "segment_length", 0.4),
	}
	if mk.Name == "" {
		return nil, fmt.Errorf("osim: marker has no name")
	}
	if loc := e.SelectAttrValue("location", ""); loc != "" {
		fields := strings.Fields(loc)
		if len(fields) != 3 {
			return nil, fmt.Errorf("osim: marker %s: location needs 3 components, got %d", mk.Name, len(fields))
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("osim: marker %s: bad location %q", mk.Name, loc)
			}
			mk.Location[i] = v
		}
	}
	return mk, nil
}

// LoadExternalLoads reads an external-loads descriptor naming a reaction
// force data file and the forces it contains.
func LoadExternalLoads(path string) (*ExternalLoads, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("osim: read external loads %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "ExternalLoads" {
		if root != nil {
			if inner := root.SelectElement("ExternalLoads"); inner != nil {
				root = inner
			} else {
				return nil, fmt.Errorf("osim: no ExternalLoads element in %s", path)
			}
		} else {
			return nil, fmt.Errorf("osim: empty external loads document %s", path)
		}
	}

	ext := &ExternalLoads{DataFile: root.SelectAttrValue("datafile", "")}
	if ext.DataFile == "" {
		return nil, fmt.Errorf("osim: external loads %s names no datafile", path)
	}
	for _, fe := range root.SelectElements("ExternalForce") {
		ext.Forces = append(ext.Forces, ExternalForce{
			Name:            fe.SelectAttrValue("name", ""),
			AppliedToBody:   fe.SelectAttrValue("applied_to_body", ""),
			ForceIdentifier: fe.SelectAttrValue("force_identifier", ""),
			PointIdentifier: fe.SelectAttrValue("point_identifier", ""),
		})
	}
	return ext, nil
}

func parseRange(s string) (float64, float64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("range needs 2 values, got %q", s)
	}
	lo, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range %q", s)
	}
	hi, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range %q", s)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("range %q is inverted", s)
	}
	return lo, hi, nil
}

func attrFloat(e *etree.Element, name string, def float64) float64 {
	s := e.SelectAttrValue(name, "")
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

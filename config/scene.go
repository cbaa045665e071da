package config

import (
	"fmt"
	"sort"

	"gopkg.in/gcfg.v1"
)

// ExampleSceneFile documents every section a scene file accepts.
const ExampleSceneFile = `# Scene files add boundary conditions on top of the run configuration.
# Every section is named and may appear any number of times.

[DirichletBox "walls"]
# Number of node layers fixed on every face. Required, at least 1.
Layers = 2
# Slip walls only zero the velocity normal to the face. Default false.
Slip = false

[RigidBody "piston"]
# Lower corner and extent of a box filled with rigid particles. Unused axes
# are ignored. XWidth (and YWidth, ZWidth for 2D/3D) are required.
X = 0.2
Y = 0.8
XWidth = 0.6
YWidth = 0.05
# Constant velocity of the body.
VX = 0
VY = -0.5
# Coulomb friction coefficient. Default 0.
Mu = 0
# Rigid particles per cell along each axis. Default 2.
Resolution = 2
`

// DirichletBoxConfig is a [DirichletBox "name"] section.
type DirichletBoxConfig struct {
	// Required
	Layers int

	// Optional
	Slip bool
	Name string
}

// CheckInit validates the section and records its name.
func (box *DirichletBoxConfig) CheckInit(name string) error {
	if box.Layers < 1 {
		return fmt.Errorf(
			"DirichletBox '%s' needs at least one layer, but has %d", name, box.Layers,
		)
	}
	box.Name = name
	return nil
}

// RigidBodyConfig is a [RigidBody "name"] section.
type RigidBodyConfig struct {
	// Required
	X, Y, Z                float64
	XWidth, YWidth, ZWidth float64

	// Optional
	VX, VY, VZ float64
	Mu         float64
	Resolution int
	Name       string
}

// CheckInit validates the section against the grid dimension and records
// its name.
func (rb *RigidBodyConfig) CheckInit(name string, dim int) error {
	widths := [3]float64{rb.XWidth, rb.YWidth, rb.ZWidth}
	axes := [3]string{"XWidth", "YWidth", "ZWidth"}
	for i := 0; i < dim; i++ {
		if widths[i] <= 0 {
			return fmt.Errorf(
				"Need to specify a positive %s for RigidBody '%s'", axes[i], name,
			)
		}
	}

	if rb.Mu < 0 {
		return fmt.Errorf(
			"RigidBody '%s' given a negative friction coefficient, %g.", name, rb.Mu,
		)
	}
	if rb.Resolution == 0 {
		rb.Resolution = 2
	} else if rb.Resolution < 0 {
		return fmt.Errorf(
			"RigidBody '%s' given a negative resolution, %d.", name, rb.Resolution,
		)
	}

	rb.Name = name
	return nil
}

// Origin returns the lower corner of the body.
func (rb *RigidBodyConfig) Origin() [3]float64 { return [3]float64{rb.X, rb.Y, rb.Z} }

// Width returns the extent of the body.
func (rb *RigidBodyConfig) Width() [3]float64 { return [3]float64{rb.XWidth, rb.YWidth, rb.ZWidth} }

// Velocity returns the body velocity.
func (rb *RigidBodyConfig) Velocity() [3]float64 { return [3]float64{rb.VX, rb.VY, rb.VZ} }

// SceneConfig is the parsed content of a scene file. Sections are returned
// sorted by name.
type SceneConfig struct {
	DirichletBoxes []DirichletBoxConfig
	RigidBodies    []RigidBodyConfig
}

type sceneFile struct {
	DirichletBox map[string]*DirichletBoxConfig
	RigidBody    map[string]*RigidBodyConfig
}

// ReadSceneConfig parses the scene file fname for a grid of dimension dim.
func ReadSceneConfig(fname string, dim int) (*SceneConfig, error) {
	sf := sceneFile{}
	if err := gcfg.ReadFileInto(&sf, fname); err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return sf.check(dim)
}

// ReadSceneString parses scene file contents held in memory.
func ReadSceneString(str string, dim int) (*SceneConfig, error) {
	sf := sceneFile{}
	if err := gcfg.ReadStringInto(&sf, str); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	return sf.check(dim)
}

func (sf *sceneFile) check(dim int) (*SceneConfig, error) {
	sc := &SceneConfig{}
	for _, name := range sortedKeys(sf.DirichletBox) {
		box := sf.DirichletBox[name]
		if err := box.CheckInit(name); err != nil {
			return nil, err
		}
		sc.DirichletBoxes = append(sc.DirichletBoxes, *box)
	}
	for _, name := range sortedKeys(sf.RigidBody) {
		rb := sf.RigidBody[name]
		if err := rb.CheckInit(name, dim); err != nil {
			return nil, err
		}
		sc.RigidBodies = append(sc.RigidBodies, *rb)
	}
	return sc, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

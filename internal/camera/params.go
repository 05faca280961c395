package camera

// Params are the tunables of the camera, its frustum and its flights.
// Distances are in scene units, angles in degrees.
type Params struct {
	BaseRadius float64

	FOV    float64 // vertical field of view
	Aspect float64
	Near   float64
	Far    float64

	// WidthIncreaseRatio > 1 shifts the visible footprint to compensate for
	// a viewport that is wider on one side.
	WidthIncreaseRatio float64

	TransitAltitude   float64 // transit radius as a multiple of BaseRadius
	DirectFlightAngle float64 // separations up to this fly straight
	StepCoefficient   float64
	TransitArrival    float64
	TargetArrival     float64
}

// DefaultParams mirrors the defaults of the config package.
func DefaultParams() Params {
	return Params{
		BaseRadius:         228,
		FOV:                50,
		Aspect:             16.0 / 9.0,
		Near:               0.1,
		Far:                1000,
		WidthIncreaseRatio: 1.66,
		TransitAltitude:    1.7,
		DirectFlightAngle:  10,
		StepCoefficient:    0.1,
		TransitArrival:     2,
		TargetArrival:      0.01,
	}
}

func (p Params) tracker() Tracker {
	return Tracker{
		BaseRadius:         p.BaseRadius,
		FOV:                p.FOV,
		Aspect:             p.Aspect,
		WidthIncreaseRatio: p.WidthIncreaseRatio,
	}
}

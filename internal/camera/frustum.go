package camera

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"geoglobe/internal/sphere"
)

// BoundingBox is the visible footprint as four lon/lat corners: top-left,
// top-right, bottom-right, bottom-left. It is not axis aligned once the
// width increase ratio skews it.
type BoundingBox [4]orb.Point

// Ring returns the corners as a closed ring.
func (b BoundingBox) Ring() orb.Ring {
	return orb.Ring{b[0], b[1], b[2], b[3], b[0]}
}

// Bound is the axis-aligned bound of the corners.
func (b BoundingBox) Bound() orb.Bound {
	return b.Ring().Bound()
}

// Tracker derives the visible footprint from the camera position. The
// camera always looks at the centre of the sphere, so position alone fixes
// the view direction.
type Tracker struct {
	BaseRadius         float64
	FOV                float64
	Aspect             float64
	WidthIncreaseRatio float64
}

// Compute returns the footprint seen from pos.
func (t Tracker) Compute(pos r3.Vector) BoundingBox {
	center := sphere.Unproject(pos)
	lon, lat := center.Lon(), center.Lat()
	altitude := pos.Norm() - t.BaseRadius

	fovVert := t.FOV * math.Pi / 180
	fovHorz := fovVert * t.Aspect

	height := math.Tan(fovVert*0.5) * altitude
	width := math.Tan(fovHorz*0.5) * altitude
	widthAdjusted := width / t.WidthIncreaseRatio

	circumference := 2 * math.Pi * t.BaseRadius
	heightGeo := 360 * height / circumference
	widthGeo := 180 * width / circumference
	widthAdjustedGeo := 180 * widthAdjusted / circumference
	offset := widthGeo * (1 - 1/t.WidthIncreaseRatio)

	return BoundingBox{
		{lon - widthAdjustedGeo - offset, lat + heightGeo},
		{lon + widthAdjustedGeo - offset, lat + heightGeo},
		{lon + widthAdjustedGeo - offset, lat - heightGeo},
		{lon - widthAdjustedGeo - offset, lat - heightGeo},
	}
}

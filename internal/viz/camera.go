package viz

import (
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects the simulation box onto the canvas with a weak
// perspective around the box centre.
type Camera struct {
	RotX, RotY float64
	Zoom       float64
	Distance   float64
}

func NewCamera() *Camera {
	return &Camera{RotX: 0.35, RotY: 0.6, Zoom: 1, Distance: 4}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(4, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.25, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project maps p, a point of a box of side box, to canvas sub-pixels.
// The box centre lands in the middle of a sw x sh area.
func (c *Camera) Project(p r3.Vec, box float64, sw, sh int) (int, int, bool) {
	half := box / 2
	rel := r3.Scale(1/box, r3.Sub(p, r3.Vec{X: half, Y: half, Z: half}))
	rot := c.rotate(rel)

	scale := c.Distance / (c.Distance - rot.Z)
	size := math.Min(float64(sw)/2, float64(sh)) * 0.55 * c.Zoom
	x := int(math.Round(rot.X*scale*size)) + sw/2
	y := int(math.Round(-rot.Y*scale*size)) + sh/2
	return x, y, x >= 0 && x < sw && y >= 0 && y < sh
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawSystem draws the box outline and one dot per particle.
func DrawSystem(cv *Canvas, cam *Camera, sys *dynamo.System) {
	cv.Clear()
	if sys == nil {
		return
	}
	sw, sh := cv.PixelWidth(), cv.PixelHeight()

	var corners [8][2]int
	for i := range corners {
		p := r3.Vec{
			X: float64(i>>2&1) * sys.Box,
			Y: float64(i>>1&1) * sys.Box,
			Z: float64(i&1) * sys.Box,
		}
		corners[i][0], corners[i][1], _ = cam.Project(p, sys.Box, sw, sh)
	}
	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		cv.DrawLine(a[0], a[1], b[0], b[1])
	}

	for _, p := range sys.Pos {
		if x, y, ok := cam.Project(p, sys.Box, sw, sh); ok {
			cv.Set(x, y)
		}
	}
}

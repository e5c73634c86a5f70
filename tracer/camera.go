package tracer

import (
	"fmt"

	"github.com/achilleasa/hptrace/types"
)

// A pinhole camera positioned at View. The camera looks along Right x Up;
// Angle controls the vertical field of view as the extent of the image plane
// at unit distance. The horizontal extent is scaled by the frame aspect ratio.
type Camera struct {
	View  types.Vec3
	Up    types.Vec3
	Right types.Vec3
	Angle float32
}

// Create a new camera. The up and right vectors are normalized.
func NewCamera(view, up, right types.Vec3, angle float32) (*Camera, error) {
	up = up.Normalize()
	right = right.Normalize()
	if up.Len() == 0 || right.Len() == 0 {
		return nil, fmt.Errorf("camera: up and right vectors must be non-zero")
	}
	if right.Cross(up).Len() == 0 {
		return nil, fmt.Errorf("camera: up %v and right %v vectors must not be parallel", up, right)
	}
	if !(angle > 0) {
		return nil, fmt.Errorf("camera: angle must be positive; got %f", angle)
	}

	return &Camera{
		View:  view,
		Up:    up,
		Right: right,
		Angle: angle,
	}, nil
}

// Get the viewing direction.
func (c *Camera) Front() types.Vec3 {
	return c.Right.Cross(c.Up).Normalize()
}

// Generate the primary ray through the (x, y) point of a frameW x frameH
// image. Pixel (0, 0) is the top-left corner; pass pixel coordinates offset
// by 0.5 to sample pixel centers.
func (c *Camera) Ray(x, y float32, frameW, frameH uint32) Ray {
	angleY := c.Angle
	angleX := c.Angle * float32(frameW) / float32(frameH)

	sx := (x/float32(frameW) - 0.5) * angleX
	sy := (0.5 - y/float32(frameH)) * angleY

	dir := c.Front().Add(c.Right.Mul(sx)).Add(c.Up.Mul(sy)).Normalize()
	return Ray{Origin: c.View, Dir: dir}
}

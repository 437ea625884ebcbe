package material

import (
	"fmt"
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// ImageTexture looks up albedo from a row-major RGB image using surface UVs.
// V=0 is the bottom row of the image.
type ImageTexture struct {
	Width    int
	Height   int
	Pixels   []core.Vec3
	Bilinear bool
}

// NewImageTexture creates a new nearest-neighbour image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		panic(fmt.Sprintf("material: image texture %dx%d needs %d pixels, got %d", width, height, width*height, len(pixels)))
	}
	return &ImageTexture{Width: width, Height: height, Pixels: pixels}
}

// Evaluate implements ColorSource; UVs wrap outside [0, 1)
func (t *ImageTexture) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)

	x := u * float64(t.Width)
	y := (1.0 - v) * float64(t.Height)

	if !t.Bilinear {
		return t.texel(int(x), int(y))
	}

	// Blend the four texels around the sample point
	x -= 0.5
	y -= 0.5
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	top := t.texel(ix, iy).Lerp(t.texel(ix+1, iy), fx)
	bottom := t.texel(ix, iy+1).Lerp(t.texel(ix+1, iy+1), fx)
	return top.Lerp(bottom, fy)
}

// texel returns the pixel at (x, y), wrapping in both directions
func (t *ImageTexture) texel(x, y int) core.Vec3 {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	return t.Pixels[y*t.Width+x]
}

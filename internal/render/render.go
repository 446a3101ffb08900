// Package render draws a posed skeleton into an image for debugging.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/colornames"
	"golang.org/x/image/vector"

	"github.com/roach88/skelpose/internal/pose"
)

// Options controls the mapping from world space to pixels and the colors.
type Options struct {
	Width, Height int

	// Scale is pixels per world unit.
	Scale float64

	// OriginX and OriginY are the pixel position of the world origin. World
	// +Y points up, so it maps to decreasing pixel rows.
	OriginX, OriginY float64

	// BoneWidth is the widest part of a bone in pixels.
	BoneWidth float64

	Background color.RGBA
	Bone       color.RGBA
	Joint      color.RGBA
}

// DefaultOptions returns a 512x512 canvas with the world origin at its
// center.
func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		Scale:      1,
		OriginX:    256,
		OriginY:    256,
		BoneWidth:  10,
		Background: colornames.Whitesmoke,
		Bone:       colornames.Steelblue,
		Joint:      colornames.Darkorange,
	}
}

// taper is where along a bone, as a fraction of its length, the quad is
// widest.
const taper = 0.15

// Draw renders every bone of s as a tapered quad from its world origin to
// its tip, with a diamond marking each joint. World transforms must be
// current.
func Draw(s *pose.Skeleton, opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	c := canvas{img: img, opts: opts}
	bones := s.Bones()
	for i := range bones {
		b := s.Bone(i)
		ox, oy := c.toPixel(b.World.X, b.World.Y)
		tx, ty := c.toPixel(b.Tip())
		c.bone(ox, oy, tx, ty)
	}
	// Joints go on top so short bones stay visible.
	for i := range bones {
		b := s.Bone(i)
		c.joint(c.toPixel(b.World.X, b.World.Y))
	}
	return img
}

type canvas struct {
	img  *image.RGBA
	opts Options
}

func (c canvas) toPixel(x, y float64) (float64, float64) {
	return c.opts.OriginX + x*c.opts.Scale, c.opts.OriginY - y*c.opts.Scale
}

func (c canvas) bone(ox, oy, tx, ty float64) {
	dx, dy := tx-ox, ty-oy
	length := math.Hypot(dx, dy)
	if length < 1 {
		return
	}
	hw := c.opts.BoneWidth / 2
	nx, ny := -dy/length*hw, dx/length*hw
	mx, my := ox+dx*taper, oy+dy*taper
	c.fill(c.opts.Bone, [][2]float64{
		{ox, oy},
		{mx + nx, my + ny},
		{tx, ty},
		{mx - nx, my - ny},
	})
}

func (c canvas) joint(x, y float64) {
	r := c.opts.BoneWidth / 3
	c.fill(c.opts.Joint, [][2]float64{
		{x, y - r},
		{x + r, y},
		{x, y + r},
		{x - r, y},
	})
}

// fill rasterizes the closed polygon pts over the image.
func (c canvas) fill(col color.RGBA, pts [][2]float64) {
	b := c.img.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	ras.DrawOp = draw.Over
	ras.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		ras.LineTo(float32(p[0]), float32(p[1]))
	}
	ras.ClosePath()
	ras.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

package render

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/vector"
)

// Surface is the 2D drawing target of the render loop.
type Surface interface {
	SetSize(w, h int)
	Size() (w, h int)
	Clear()
	// FillGradient fills r with a vertical gradient from top to bottom.
	FillGradient(r image.Rectangle, top, bottom color.RGBA)
	// FillRoundedRect fills r with its top corners rounded by radius.
	FillRoundedRect(r image.Rectangle, radius float64, c color.RGBA)
}

// Raster is a Surface backed by an RGBA image.
type Raster struct {
	img *image.RGBA
	ras *vector.Rasterizer
}

// NewRaster creates a w×h raster.
func NewRaster(w, h int) *Raster {
	r := &Raster{}
	r.SetSize(w, h)
	return r
}

// SetSize resizes the raster. Contents are discarded when the size changes.
func (r *Raster) SetSize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if r.img != nil && r.img.Rect.Dx() == w && r.img.Rect.Dy() == h {
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, w, h))
	r.ras = vector.NewRasterizer(w, h)
}

func (r *Raster) Size() (int, int) {
	return r.img.Rect.Dx(), r.img.Rect.Dy()
}

// Image returns the backing image. It is overwritten by the next frame.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Clear() {
	clear(r.img.Pix)
}

func (r *Raster) FillGradient(rect image.Rectangle, top, bottom color.RGBA) {
	rect = rect.Intersect(r.img.Rect)
	if rect.Empty() {
		return
	}
	h := rect.Dy()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y-rect.Min.Y) / float64(h-1)
		}
		row := image.Rect(rect.Min.X, y, rect.Max.X, y+1)
		draw.Draw(r.img, row, image.NewUniform(lerpRGBA(top, bottom, t)), image.Point{}, draw.Over)
	}
}

func (r *Raster) FillRoundedRect(rect image.Rectangle, radius float64, c color.RGBA) {
	rect = rect.Intersect(r.img.Rect)
	if rect.Empty() {
		return
	}
	x0, y0 := float32(rect.Min.X), float32(rect.Min.Y)
	x1, y1 := float32(rect.Max.X), float32(rect.Max.Y)
	rad := float32(math.Min(radius, math.Min(float64(rect.Dx()), float64(rect.Dy()))/2))

	w, h := r.Size()
	r.ras.Reset(w, h)
	r.ras.MoveTo(x0, y1)
	r.ras.LineTo(x0, y0+rad)
	r.ras.QuadTo(x0, y0, x0+rad, y0)
	r.ras.LineTo(x1-rad, y0)
	r.ras.QuadTo(x1, y0, x1, y0+rad)
	r.ras.LineTo(x1, y1)
	r.ras.ClosePath()
	r.ras.DrawOp = draw.Over
	r.ras.Draw(r.img, r.img.Rect, image.NewUniform(c), image.Point{})
}

// WritePNG encodes the current frame to path.
func (r *Raster) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, r.img); err != nil {
		f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = max(0, min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

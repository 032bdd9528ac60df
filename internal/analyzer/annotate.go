package analyzer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const boxThickness = 2

var seatColors = map[SeatClass]color.RGBA{
	SeatBestseller: {R: 0, G: 0, B: 255, A: 255},
	SeatAvailable:  {R: 0, G: 255, B: 0, A: 255},
	SeatSold:       {R: 255, G: 0, B: 0, A: 255},
}

// Annotate returns a copy of img with a box drawn around every counted seat.
func (a *implAnalyzer) Annotate(img image.Image, res Result) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	for _, s := range res.Seats {
		outline(dst, s.Bounds, image.NewUniform(seatColors[s.Class]))
	}
	return dst
}

func outline(dst draw.Image, r image.Rectangle, c image.Image) {
	t := boxThickness
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), c, image.Point{}, draw.Src)
	}
}

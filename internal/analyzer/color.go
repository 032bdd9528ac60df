package analyzer

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// hsv8 converts an RGB pixel to HSV on the 8-bit scale (H 0-179, S and V
// 0-255).
func hsv8(r, g, b uint8) (uint8, uint8, uint8) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()

	hh := math.Round(h / 2)
	if hh >= 180 {
		hh -= 180
	}
	return uint8(hh), uint8(math.Round(s * 255)), uint8(math.Round(v * 255))
}

// bandCounts counts the pixels of img inside box that fall in each band.
func bandCounts(img *image.NRGBA, box image.Rectangle, green, yellow HueBand) (int, int) {
	var g, y int
	box = box.Intersect(img.Bounds())
	for py := box.Min.Y; py < box.Max.Y; py++ {
		for px := box.Min.X; px < box.Max.X; px++ {
			i := img.PixOffset(px, py)
			h, s, v := hsv8(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			if green.contains(h, s, v) {
				g++
			}
			if yellow.contains(h, s, v) {
				y++
			}
		}
	}
	return g, y
}

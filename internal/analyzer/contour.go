package analyzer

import "image"

// grayLevel is the BT.601 luma in fixed point, rounded to nearest.
func grayLevel(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 8192) >> 14)
}

// externalBounds returns the bounding boxes of the outermost foreground
// shapes of mask, in raster order of their first pixel. Foreground is
// 8-connected and background 4-connected. A shape sitting inside a hole of
// another shape is not outermost and is left out.
func externalBounds(mask []bool, w, h int) []image.Rectangle {
	outer := outerBackground(mask, w, h)

	labels := make([]int32, len(mask))
	var out []image.Rectangle
	var stack []int
	var next int32

	for start := range mask {
		if !mask[start] || labels[start] != 0 {
			continue
		}

		next++
		label := next
		labels[start] = label
		stack = append(stack[:0], start)

		x0, y0 := start%w, start/w
		box := image.Rect(x0, y0, x0+1, y0+1)
		external := false

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w

			if x < box.Min.X {
				box.Min.X = x
			}
			if x+1 > box.Max.X {
				box.Max.X = x + 1
			}
			if y+1 > box.Max.Y {
				box.Max.Y = y + 1
			}

			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				external = true
			} else if outer[p-1] || outer[p+1] || outer[p-w] || outer[p+w] {
				external = true
			}

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w || (dx == 0 && dy == 0) {
						continue
					}
					q := ny*w + nx
					if mask[q] && labels[q] == 0 {
						labels[q] = label
						stack = append(stack, q)
					}
				}
			}
		}

		if external {
			out = append(out, box)
		}
	}

	return out
}

// outerBackground marks background pixels 4-connected to the image frame.
func outerBackground(mask []bool, w, h int) []bool {
	outer := make([]bool, len(mask))
	var stack []int

	seed := func(p int) {
		if !mask[p] && !outer[p] {
			outer[p] = true
			stack = append(stack, p)
		}
	}

	for x := 0; x < w; x++ {
		seed(x)
		seed((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		seed(y * w)
		seed(y*w + w - 1)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p%w, p/w

		if x > 0 {
			seed(p - 1)
		}
		if x < w-1 {
			seed(p + 1)
		}
		if y > 0 {
			seed(p - w)
		}
		if y < h-1 {
			seed(p + w)
		}
	}

	return outer
}
